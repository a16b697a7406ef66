package catalog

// Event type names shipped with the catalog.
const (
	MealPlanCreated      = "meal_plan_created"
	MealPlanUpdated      = "meal_plan_updated"
	GroceryListGenerated = "grocery_list_generated"
	StockLow             = "stock_low"
	ItemExpiring         = "item_expiring"
	ItemExpired          = "item_expired"
	BudgetWarning        = "budget_warning"
	BudgetExceeded       = "budget_exceeded"
	PurchaseLogged       = "purchase_logged"
	WeeklySummary        = "weekly_summary"
)

// Builtin returns the definitions for every built-in event type.
func Builtin() []Definition {
	return []Definition{
		{
			Name:        MealPlanCreated,
			Description: "Fired when a new meal plan is created for a household",
			Category:    "planning",
			Priority:    PriorityNormal,
			Sample: map[string]any{
				"planId":    "plan_2043",
				"weekStart": "2026-08-31",
				"meals":     7,
			},
		},
		{
			Name:        MealPlanUpdated,
			Description: "Fired when an existing meal plan is modified",
			Category:    "planning",
			Priority:    PriorityLow,
			Sample: map[string]any{
				"planId":       "plan_2043",
				"changedMeals": []any{"tuesday_dinner"},
			},
		},
		{
			Name:        GroceryListGenerated,
			Description: "Fired when a grocery list is generated from a meal plan",
			Category:    "planning",
			Priority:    PriorityNormal,
			Sample: map[string]any{
				"listId":    "list_881",
				"itemCount": 23,
			},
		},
		{
			Name:        StockLow,
			Description: "Fired when a pantry item falls below its restock threshold",
			Category:    "inventory",
			Priority:    PriorityHigh,
			Sample: map[string]any{
				"item":      "Eggs",
				"quantity":  2,
				"threshold": 6,
			},
		},
		{
			Name:        ItemExpiring,
			Description: "Fired when a pantry item is within its expiry warning window",
			Category:    "inventory",
			Priority:    PriorityHigh,
			Sample: map[string]any{
				"item":      "Milk",
				"expiresAt": "2026-09-02",
				"daysLeft":  3,
			},
		},
		{
			Name:        ItemExpired,
			Description: "Fired when a pantry item has passed its expiry date",
			Category:    "inventory",
			Priority:    PriorityCritical,
			Sample: map[string]any{
				"item":      "Yogurt",
				"expiredAt": "2026-08-27",
			},
		},
		{
			Name:        BudgetWarning,
			Description: "Fired when monthly spend crosses the warning fraction of the budget",
			Category:    "budget",
			Priority:    PriorityHigh,
			Sample: map[string]any{
				"budget":  400.0,
				"spent":   342.5,
				"percent": 85.6,
			},
		},
		{
			Name:        BudgetExceeded,
			Description: "Fired when monthly spend exceeds the configured budget",
			Category:    "budget",
			Priority:    PriorityCritical,
			Sample: map[string]any{
				"budget": 400.0,
				"spent":  417.8,
				"overBy": 17.8,
			},
		},
		{
			Name:        PurchaseLogged,
			Description: "Fired when a grocery purchase is recorded",
			Category:    "budget",
			Priority:    PriorityLow,
			Sample: map[string]any{
				"store": "Green Basket",
				"total": 64.2,
				"items": 12,
			},
		},
		{
			Name:        WeeklySummary,
			Description: "Fired once a week with aggregate spend, waste, and plan adherence",
			Category:    "reports",
			Priority:    PriorityNormal,
			Sample: map[string]any{
				"weekStart":     "2026-08-24",
				"totalSpent":    96.4,
				"itemsWasted":   1,
				"mealsFollowed": 6,
			},
		},
	}
}
