// Package vibe предоставляет клиент внешнего сервиса генерации текста.
package vibe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mmeshcher/foodwrapped-system/internal/model"
)

const (
	defaultModel = "gemini-2.5-flash-lite"
	// topN — сколько позиций рейтингов уходит во внешний сервис.
	topN = 5

	promptHeader = "You are a savage Gen-Z roast writer for a college dining app. " +
		"Roast the user in ONE sentence. Start EXACTLY with: \"You're a...\" " +
		"Respond ONLY as JSON with fields `sentence` and `colors`.\n\n"
)

// ErrMalformedReply возвращается, когда внешний сервис прислал ответ,
// из которого не удаётся разобрать JSON с результатом.
var ErrMalformedReply = errors.New("malformed generation reply")

var jsonFenceRe = regexp.MustCompile("^```json\\s*|\\s*```$")

// Client инкапсулирует HTTP-взаимодействие с сервисом генерации текста.
// Клиент создаётся один раз при старте процесса и передаётся явно.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient создаёт клиент генерации по указанному адресу, ключу и имени модели.
func NewClient(baseURL, apiKey, modelName string) *Client {
	if modelName == "" {
		modelName = defaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Vibe — результат генерации: фраза и карта ключевых цветов для оформления.
type Vibe struct {
	Sentence string            `json:"sentence"`
	Colors   map[string]string `json:"colors"`
}

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// promptPayload — сокращённая статистика, уходящая во внешний сервис:
// без точных времён, идентификаторов и имени получателя.
type promptPayload struct {
	TopItems          []string `json:"top_items"`
	TopRestaurants    []string `json:"top_restaurants"`
	TotalItemsOrdered int      `json:"total_items_ordered"`
	TotalUniqueItems  int      `json:"total_unique_items"`
	TopRestaurant     string   `json:"top_restaurant"`
}

// BuildPrompt собирает промпт из статистики, усекая рейтинги до topN позиций.
func BuildPrompt(s *model.Statistics) string {
	payload := reduceStats(s)
	data, _ := json.Marshal(payload)
	return promptHeader + string(data)
}

func reduceStats(s *model.Statistics) promptPayload {
	payload := promptPayload{
		TopItems:          []string{},
		TopRestaurants:    []string{},
		TotalItemsOrdered: s.TotalItemsOrdered,
		TotalUniqueItems:  s.TotalUniqueItems,
		TopRestaurant:     s.TopRestaurant.Name,
	}

	for _, ic := range s.ItemCounts {
		if len(payload.TopItems) == topN {
			break
		}
		payload.TopItems = append(payload.TopItems, ic.Item)
	}

	type restaurantCount struct {
		name  string
		count int
	}
	ranked := make([]restaurantCount, 0, len(s.RestaurantCounts))
	for name, count := range s.RestaurantCounts {
		ranked = append(ranked, restaurantCount{name: name, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].name < ranked[j].name
	})
	for _, rc := range ranked {
		if len(payload.TopRestaurants) == topN {
			break
		}
		payload.TopRestaurants = append(payload.TopRestaurants, rc.name)
	}

	return payload
}

// Generate отправляет промпт внешнему сервису и разбирает его JSON-ответ.
func (c *Client) Generate(ctx context.Context, prompt string) (*Vibe, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("vibe client not configured")
	}

	reqBody, err := json.Marshal(generateRequest{
		Contents: []requestContent{
			{Parts: []requestPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: 1.1},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty candidates", ErrMalformedReply)
	}

	raw := strings.TrimSpace(jsonFenceRe.ReplaceAllString(result.Candidates[0].Content.Parts[0].Text, ""))

	var v Vibe
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	return &v, nil
}
