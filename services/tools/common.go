package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Built-in tool handlers. The product/user/notification handlers are mock
// implementations; wire them to real backends before production use.

func searchProducts(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	maxResults := 10
	if raw, ok := args["max_results"].(float64); ok {
		maxResults = int(raw)
	}
	if maxResults < 1 || maxResults > 100 {
		return nil, fmt.Errorf("max_results must be between 1 and 100")
	}

	category, _ := args["category"].(string)
	if category == "" {
		category = "general"
	}

	return []map[string]interface{}{
		{
			"id":       1,
			"name":     "Product for " + query,
			"price":    99.99,
			"category": category,
		},
	}, nil
}

func getWeather(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	location, _ := args["location"].(string)
	return map[string]interface{}{
		"location":    location,
		"temperature": 22,
		"condition":   "sunny",
		"humidity":    65,
	}, nil
}

func calculate(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	expression, _ := args["expression"].(string)
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("expression is required")
	}
	return evalExpression(expression)
}

func getUserInfo(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	userID, _ := args["user_id"].(string)
	return map[string]interface{}{
		"user_id":      userID,
		"name":         "Mario Rossi",
		"email":        "mario.rossi@example.com",
		"subscription": "premium",
	}, nil
}

func sendNotification(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	channel, _ := args["channel"].(string)
	if channel == "" {
		channel = "email"
	}
	switch channel {
	case "email", "sms", "push":
	default:
		return nil, fmt.Errorf("unsupported channel %q", channel)
	}
	return true, nil
}

// NewDefaultRegistry creates a registry preloaded with the common tools.
func NewDefaultRegistry(logger *zap.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register("search_products", searchProducts,
		"Search products in the catalog",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query for products",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Product category (optional)",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results",
					"default":     10,
				},
			},
			"required": []interface{}{"query"},
		})

	r.Register("get_weather", getWeather,
		"Get the weather forecast for a location",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"location": map[string]interface{}{
					"type":        "string",
					"description": "Location name",
				},
			},
			"required": []interface{}{"location"},
		})

	r.Register("calculate", calculate,
		"Evaluate an arithmetic expression",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Arithmetic expression to evaluate (e.g. '2 + 2 * 3')",
				},
			},
			"required": []interface{}{"expression"},
		})

	r.Register("get_user_info", getUserInfo,
		"Get information about a user",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "User identifier",
				},
			},
			"required": []interface{}{"user_id"},
		})

	r.Register("send_notification", sendNotification,
		"Send a notification to a user via email/sms/push",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"user_id": map[string]interface{}{
					"type":        "string",
					"description": "Recipient user identifier",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message body",
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"enum":        []interface{}{"email", "sms", "push"},
					"description": "Notification channel",
					"default":     "email",
				},
			},
			"required": []interface{}{"user_id", "message"},
		})

	return r
}
