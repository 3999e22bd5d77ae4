package menu

import (
	"testing"

	"codeberg.org/snonux/wordtip/internal/settings"
)

const pageURL = "https://news.example.com/article"

func visibility(items []Item) map[Action]bool {
	m := make(map[Action]bool, len(items))
	for _, item := range items {
		m[item.Action] = item.Visible
	}
	return m
}

func TestItemsOnUnlistedPage(t *testing.T) {
	items := Items(pageURL, settings.Rules{})
	if len(items) != 7 {
		t.Fatalf("Expected 7 menu items, got %d", len(items))
	}

	visible := visibility(items)
	for _, action := range []Action{ActionAllowDomain, ActionDenyDomain, ActionAllowPage, ActionDenyPage, ActionOpenSettings} {
		if !visible[action] {
			t.Errorf("Expected %s to be visible on an unlisted page", action)
		}
	}
	for _, action := range []Action{ActionResetDomain, ActionResetPage} {
		if visible[action] {
			t.Errorf("Expected %s to be hidden on an unlisted page", action)
		}
	}
}

func TestItemsOnDeniedDomain(t *testing.T) {
	var rules settings.Rules
	if err := Apply(ActionDenyDomain, pageURL, &rules); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	visible := visibility(Items(pageURL, rules))
	if visible[ActionDenyDomain] {
		t.Error("Expected deny-domain to be hidden once the domain is denied")
	}
	if !visible[ActionAllowDomain] {
		t.Error("Expected allow-domain to stay visible")
	}
	if !visible[ActionResetDomain] {
		t.Error("Expected reset-domain to appear once the domain is listed")
	}
	// Page listings are independent of domain listings
	if !visible[ActionDenyPage] || visible[ActionResetPage] {
		t.Error("Expected page actions to be unaffected by the domain listing")
	}
}

func TestApplyRoundTrip(t *testing.T) {
	var rules settings.Rules

	if err := Apply(ActionAllowPage, pageURL, &rules); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := rules.PageVerdict(pageURL); got != settings.VerdictAllow {
		t.Errorf("Expected allow verdict, got %q", got)
	}

	if err := Apply(ActionResetPage, pageURL, &rules); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := rules.PageVerdict(pageURL); got != settings.VerdictNone {
		t.Errorf("Expected no verdict after reset, got %q", got)
	}
}

func TestApplyOpenSettingsLeavesRules(t *testing.T) {
	var rules settings.Rules
	if err := Apply(ActionOpenSettings, pageURL, &rules); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(rules.AllowDomains)+len(rules.DenyDomains)+len(rules.AllowPages)+len(rules.DenyPages) != 0 {
		t.Error("Expected open-settings not to touch the rules")
	}
}

func TestApplyUnknownAction(t *testing.T) {
	var rules settings.Rules
	if err := Apply(Action("bogus"), pageURL, &rules); err == nil {
		t.Error("Expected error for unknown action")
	}
}

func TestApplyBadURL(t *testing.T) {
	var rules settings.Rules
	if err := Apply(ActionDenyDomain, "not a url", &rules); err == nil {
		t.Error("Expected error for URL without host")
	}
}
