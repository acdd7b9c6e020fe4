// Package domain – content actions, credit costs, resolutions, and
// purchasable credit packages.
//
// Actions are a fixed enumerated mapping resolved at startup, not a
// runtime dictionary: unknown names are caught by a single lookup and
// rejected before any credit check happens.
package domain

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Credit costs per generation kind.
const (
	ContentGenerationCost int64 = 5
	ImageGenerationCost   int64 = 10
)

// SignupBonusCredits is granted once when an account is created.
const SignupBonusCredits int64 = 20

// KindImage is the GenerationRecord kind for image generations. Text
// generations use the action name as their kind.
const KindImage = "image"

// Action is an enumerated content-generation behavior. Each action
// carries the prompt template prepended to the user content.
type Action struct {
	Name     string
	Template string
}

// Label returns a human-readable form of the action name.
func (a Action) Label() string {
	return cases.Title(language.English).String(a.Name)
}

// actions is the fixed action table. Order is stable for listing.
var actions = []Action{
	{Name: "summarize", Template: "Summarize the following content into a concise paragraph, keeping the key points intact."},
	{Name: "explain", Template: "Explain the following content in simple language a beginner can follow."},
	{Name: "rewrite", Template: "Rewrite the following content to improve clarity and flow without changing its meaning."},
	{Name: "expand", Template: "Expand the following content with relevant detail and examples, keeping the original tone."},
	{Name: "grammar", Template: "Fix grammar, spelling, and punctuation in the following content. Return only the corrected text."},
	{Name: "tweet", Template: "Turn the following content into an engaging tweet under 280 characters."},
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actions))
	for _, a := range actions {
		m[a.Name] = a
	}
	return m
}()

// ActionByName resolves an action name to its definition. The boolean is
// false for unknown names.
func ActionByName(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}

// Actions returns the fixed action table.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// Resolution describes the pixel dimensions behind a resolution name.
type Resolution struct {
	Width  int
	Height int
}

// DefaultResolution is used when the requested resolution is unknown or
// empty, matching the permissive behavior of the image endpoint.
const DefaultResolution = "1024x1024"

var resolutions = map[string]Resolution{
	"256x256":   {Width: 256, Height: 256},
	"512x512":   {Width: 512, Height: 512},
	"1024x1024": {Width: 1024, Height: 1024},
	"1024x1792": {Width: 1024, Height: 1792},
	"1792x1024": {Width: 1792, Height: 1024},
}

// ResolveResolution maps a resolution name to dimensions, falling back to
// DefaultResolution for unknown names. The returned name is the one that
// was actually resolved, so cache keys stay canonical.
func ResolveResolution(name string) (string, Resolution) {
	if r, ok := resolutions[name]; ok {
		return name, r
	}
	return DefaultResolution, resolutions[DefaultResolution]
}

// CreditPackage is a purchasable credit bundle. Price is in whole
// currency units (INR); the gateway order amount is Price * 100 paise.
type CreditPackage struct {
	ID      string `json:"id"`
	Price   int64  `json:"price"`
	Credits int64  `json:"credits"`
}

var creditPackages = []CreditPackage{
	{ID: "starter", Price: 49, Credits: 50},
	{ID: "standard", Price: 99, Credits: 120},
	{ID: "pro", Price: 199, Credits: 300},
	{ID: "studio", Price: 499, Credits: 1000},
}

// CreditPackages returns the purchasable packages in display order.
func CreditPackages() []CreditPackage {
	out := make([]CreditPackage, len(creditPackages))
	copy(out, creditPackages)
	return out
}

// PackageByID resolves a package id. The boolean is false for unknown ids.
func PackageByID(id string) (CreditPackage, bool) {
	for _, p := range creditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}
