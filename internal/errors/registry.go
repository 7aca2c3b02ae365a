package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Compile Errors (W100-W119)
	// ============================================

	"W101": {
		Category:   CategoryCompile,
		Message:    "Invalid route declaration",
		Detail:     "A route declaration must have a view, children, or both. A node with neither can never produce output.",
		Suggestion: "Add a View to make the node renderable, or give it Children to compose nested templates.",
	},
	"W102": {
		Category:   CategoryCompile,
		Message:    "Invalid path template",
		Detail:     "The path template could not be compiled by the template compiler.",
		Suggestion: "Templates support literal segments, :name parameters, and the catch-all *.",
	},
	"W103": {
		Category:   CategoryCompile,
		Message:    "Route set already compiled",
		Detail:     "Route declarations are supplied once at construction and are immutable for the engine's lifetime.",
		Suggestion: "Construct a new engine instead of re-supplying declarations.",
	},

	// ============================================
	// Match Errors (W200-W219)
	// ============================================

	"W201": {
		Category:   CategoryMatch,
		Message:    "No route matched",
		Detail:     "No hierarchy entry matches the current path.",
		Suggestion: "Declare a catch-all route (template \"*\") last to render a not-found state.",
	},
	"W202": {
		Category:   CategoryMatch,
		Message:    "Hierarchy does not align with route tree",
		Detail:     "The matched id sequence does not descend the route tree: a node with children has no next id, or a childless node has ids remaining. This indicates a hierarchy compilation bug.",
		Suggestion: "This should never occur from route declarations alone; please report it.",
	},
	"W203": {
		Category:   CategoryMatch,
		Message:    "No active route",
		Detail:     "The current route was read while no match exists.",
		Suggestion: "Check Matched() before reading the current route.",
	},

	// ============================================
	// Preload Errors (W300-W319)
	// ============================================

	"W301": {
		Category:   CategoryPreload,
		Message:    "Guard failed",
		Detail:     "A guard returned an error. The route's preload is left non-completed and is not retried.",
		Suggestion: "Guards should redirect for access-control denials and reserve errors for genuine failures.",
	},
	"W302": {
		Category:   CategoryPreload,
		Message:    "Resolver failed",
		Detail:     "A resolver returned an error. The whole route is blocked to avoid rendering with partially-defined resolved data.",
		Suggestion: "Handle expected data-loading failures inside the resolver and resolve a fallback value.",
	},

	// ============================================
	// Navigation Errors (W400-W419)
	// ============================================

	"W401": {
		Category:   CategoryNavigation,
		Message:    "Invalid navigation path",
		Detail:     "The navigation path was rejected during canonicalization.",
		Suggestion: "Navigation paths must be relative, start with /, and contain no backslashes or NUL bytes.",
	},
	"W402": {
		Category:   CategoryNavigation,
		Message:    "Invalid search value",
		Detail:     "The search field could not be encoded as a query string.",
		Suggestion: "Pass a raw query string, a map[string]string, or url.Values.",
	},

	// ============================================
	// Config Errors (W500-W519)
	// ============================================

	"W501": {
		Category:   CategoryConfig,
		Message:    "Missing route declarations",
		Detail:     "The engine was constructed without any route declarations.",
		Suggestion: "Pass at least one route declaration to New.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
