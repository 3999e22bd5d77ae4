// Package menu derives the context menu offered on a page from the
// current rules state and applies the chosen action back to the rules.
package menu

import (
	"fmt"

	"codeberg.org/snonux/wordtip/internal/settings"
)

// Action identifies a context menu entry.
type Action string

const (
	ActionAllowDomain  Action = "allow-domain"
	ActionDenyDomain   Action = "deny-domain"
	ActionResetDomain  Action = "reset-domain"
	ActionAllowPage    Action = "allow-page"
	ActionDenyPage     Action = "deny-page"
	ActionResetPage    Action = "reset-page"
	ActionOpenSettings Action = "open-settings"
)

// Item is one entry of the static menu tree.
type Item struct {
	Action  Action `json:"action"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

// Items returns the full menu tree for a page. Visibility derives from
// the rules: a listing action is hidden when that listing already exists,
// the reset actions appear only when one does.
func Items(pageURL string, rules settings.Rules) []Item {
	domainVerdict := rules.DomainVerdict(pageURL)
	pageVerdict := rules.PageVerdict(pageURL)

	return []Item{
		{Action: ActionAllowDomain, Title: "Enable on this domain", Visible: domainVerdict != settings.VerdictAllow},
		{Action: ActionDenyDomain, Title: "Disable on this domain", Visible: domainVerdict != settings.VerdictDeny},
		{Action: ActionResetDomain, Title: "Reset this domain", Visible: domainVerdict != settings.VerdictNone},
		{Action: ActionAllowPage, Title: "Enable on this page", Visible: pageVerdict != settings.VerdictAllow},
		{Action: ActionDenyPage, Title: "Disable on this page", Visible: pageVerdict != settings.VerdictDeny},
		{Action: ActionResetPage, Title: "Reset this page", Visible: pageVerdict != settings.VerdictNone},
		{Action: ActionOpenSettings, Title: "Wordtip settings...", Visible: true},
	}
}

// Apply performs the menu action against the rules. ActionOpenSettings
// does not touch the rules; the caller opens the settings surface.
func Apply(action Action, pageURL string, rules *settings.Rules) error {
	switch action {
	case ActionAllowDomain:
		return rules.AddDomain(pageURL, true)
	case ActionDenyDomain:
		return rules.AddDomain(pageURL, false)
	case ActionResetDomain:
		return rules.RemoveDomain(pageURL)
	case ActionAllowPage:
		return rules.AddPage(pageURL, true)
	case ActionDenyPage:
		return rules.AddPage(pageURL, false)
	case ActionResetPage:
		return rules.RemovePage(pageURL)
	case ActionOpenSettings:
		return nil
	}
	return fmt.Errorf("unknown menu action: %s", action)
}
