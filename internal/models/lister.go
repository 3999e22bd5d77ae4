package models

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/wordtip/internal/translation"
)

// Lister handles listing the models offered by the configured endpoint
type Lister struct {
	config translation.Config
	client *openai.Client
}

// NewLister creates a model lister for the configured endpoint
func NewLister(config translation.Config) *Lister {
	apiConfig := openai.DefaultConfig(config.APIKey)
	if config.Endpoint != "" {
		apiConfig.BaseURL = config.Endpoint
	}
	return &Lister{
		config: config,
		client: openai.NewClientWithConfig(apiConfig),
	}
}

// ChatModels returns the chat-capable model ids, sorted
func (l *Lister) ChatModels(ctx context.Context) ([]string, error) {
	if l.config.APIKey == "" {
		return nil, fmt.Errorf("API key not found. Set OPENAI_API_KEY environment variable or configure in .wordtip.yaml")
	}

	models, err := l.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	chatModels := []string{}
	for _, model := range models.Models {
		modelID := model.ID
		if strings.Contains(modelID, "gpt") || strings.Contains(modelID, "chat") || strings.Contains(modelID, "gemini") {
			chatModels = append(chatModels, modelID)
		}
	}
	sort.Strings(chatModels)

	return chatModels, nil
}

// ListAvailableModels prints the models usable for meaning lookups
func (l *Lister) ListAvailableModels() error {
	chatModels, err := l.ChatModels(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("Available Chat Models:")
	if len(chatModels) == 0 {
		fmt.Println("  No chat models found")
		return nil
	}
	for _, model := range chatModels {
		fmt.Printf("  %s\n", model)
	}

	return nil
}
