package convo

import "affibot/internal/repo"

// Field describes one collectable attribute of an entity: what to ask, how to
// validate the answer, and which storage column receives it. Fields form a
// closed set; dynamic field names never reach the store.
type Field struct {
	Key      string // callback token in edit menus
	Label    string // edit menu label
	Prompt   string
	Retry    string // extra hint shown on validation failure
	Column   string
	Validate func(string) (any, error)
}

var offerFields = []Field{
	{Key: "name", Label: "Name", Prompt: "Enter the offer name:", Column: "name", Validate: validateText},
	{Key: "desc", Label: "Description", Prompt: "Enter offer description:", Column: "description", Validate: validateText},
	{Key: "payout", Label: "Payout", Prompt: "Enter payout amount (USD):", Retry: "Please enter a valid number for payout.", Column: "payout", Validate: validateDecimal},
	{Key: "geo", Label: "GEO", Prompt: "Enter target GEO countries (comma-separated):", Column: "geo", Validate: validateText},
	{Key: "vertical", Label: "Vertical", Prompt: "Enter vertical (e.g., Games, Finance, E-commerce):", Column: "vertical", Validate: validateText},
	{Key: "kpi", Label: "KPI", Prompt: "Enter KPI requirements:", Column: "kpi", Validate: validateText},
	{Key: "tracker", Label: "Tracker", Prompt: "Enter tracker:", Column: "tracker", Validate: validateText},
	{Key: "antifraud", Label: "Anti-fraud", Prompt: "Enter anti-fraud system:", Column: "antifraud", Validate: validateText},
	{Key: "appid", Label: "AppsFlyer App ID", Prompt: "Enter AppsFlyer app ID:", Column: "appsflyer_app_id", Validate: validateText},
	{Key: "event", Label: "Event Name", Prompt: "Enter event name:", Column: "event_name", Validate: validateText},
	{Key: "limit", Label: "Daily Limit", Prompt: "Enter daily traffic limit:", Retry: "The daily limit must be a positive whole number.", Column: "daily_limit", Validate: validatePositiveInt},
}

var sourceFields = []Field{
	{Key: "name", Label: "Name", Prompt: "Enter the traffic source name:", Column: "name", Validate: validateText},
	{Key: "conversion", Label: "Conversion", Prompt: "Enter conversion rate (%):", Retry: "Please enter a valid number for conversion.", Column: "conversion", Validate: validateDecimal},
	{Key: "cost", Label: "Cost", Prompt: "Enter cost per unit (USD):", Retry: "Please enter a valid number for cost.", Column: "cost", Validate: validateDecimal},
	{Key: "capacity", Label: "Capacity", Prompt: "Enter traffic capacity:", Retry: "Capacity must be a positive whole number.", Column: "capacity", Validate: validatePositiveInt},
	{Key: "geo", Label: "GEO", Prompt: "Enter covered GEO countries (comma-separated):", Column: "geo", Validate: validateText},
	{Key: "performance", Label: "Performance", Prompt: "Enter performance notes:", Column: "performance", Validate: validateText},
}

func findField(fields []Field, key string) *Field {
	for i := range fields {
		if fields[i].Key == key {
			return &fields[i]
		}
	}
	return nil
}

// offerFromDraft assembles an Offer from the values collected by the creation
// workflow, in field order.
func offerFromDraft(draft map[string]any) repo.Offer {
	return repo.Offer{
		Name:           asString(draft["name"]),
		Description:    asString(draft["description"]),
		Payout:         asFloat(draft["payout"]),
		Geo:            asString(draft["geo"]),
		Vertical:       asString(draft["vertical"]),
		KPI:            asString(draft["kpi"]),
		Tracker:        asString(draft["tracker"]),
		Antifraud:      asString(draft["antifraud"]),
		AppsFlyerAppID: asString(draft["appsflyer_app_id"]),
		EventName:      asString(draft["event_name"]),
		DailyLimit:     asInt(draft["daily_limit"]),
	}
}

func sourceFromDraft(draft map[string]any) repo.TrafficSource {
	return repo.TrafficSource{
		Name:        asString(draft["name"]),
		Conversion:  asFloat(draft["conversion"]),
		Cost:        asFloat(draft["cost"]),
		Capacity:    asInt(draft["capacity"]),
		Geo:         asString(draft["geo"]),
		Performance: asString(draft["performance"]),
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}

func asInt(v any) int64 {
	i, _ := v.(int64)
	return i
}
