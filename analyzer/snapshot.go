package analyzer

import "time"

// Snapshot is the immutable result of one full analysis pass. Re-analysis
// always produces a fresh Snapshot; nothing here is mutated after Analyze
// returns.
type Snapshot struct {
	URL      string        `json:"url"`
	Hostname string        `json:"hostname"`
	Path     string        `json:"path"`
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`

	Colors       ColorSummary      `json:"colors"`
	ColorHarmony ColorHarmony      `json:"colorHarmony"`
	Selectors    SelectorMap       `json:"selectors"`
	Structure    Structure         `json:"structure"`
	Typography   Typography        `json:"typography"`
	CSSVariables map[string]string `json:"cssVariables,omitempty"`

	TestIDs        []string            `json:"testIds,omitempty"`
	TestIDsByTag   map[string][]string `json:"testIdsByTag,omitempty"`
	AriaLabels     []AriaLabel         `json:"ariaLabels,omitempty"`
	DOMSnapshot    string              `json:"domSnapshot"`
	ElementContext []ElementContext    `json:"elementContext,omitempty"`

	Frameworks   Frameworks   `json:"frameworks"`
	CSSInJS      CSSInJS      `json:"cssInJs"`
	MediaQueries MediaQueries `json:"mediaQueries"`
	Animations   Animations   `json:"animations"`
	ShadowDOM    ShadowDOM    `json:"shadowDom"`
	Layers       Layers       `json:"layers"`

	ElementTypes      []string          `json:"elementTypes,omitempty"`
	ElementCounts     map[string]int    `json:"elementCounts,omitempty"`
	ElementCategories ElementCategories `json:"elementCategories"`

	Icons          Icons           `json:"icons"`
	Forms          Forms           `json:"forms"`
	PseudoElements PseudoElements  `json:"pseudoElements"`
	Inheritance    Inheritance     `json:"styleInheritance"`
	Spacing        Spacing         `json:"spacing"`
	TypoScale      TypographyScale `json:"typographyScale"`
	BorderShadow   BorderShadow    `json:"borderShadow"`
}

// ColorSummary ranks the colors in use, most frequent first, normalized to
// #rrggbb where possible.
type ColorSummary struct {
	Backgrounds []string `json:"backgrounds"`
	Text        []string `json:"text"`
	Borders     []string `json:"borders"`
	Dominant    []string `json:"dominant"`
	DarkMode    bool     `json:"isDarkMode"`
}

// ColorRoles assigns sampled colors to design roles.
type ColorRoles struct {
	Background []string `json:"background"`
	Text       []string `json:"text"`
	Primary    string   `json:"primary,omitempty"`
	Accent     []string `json:"accent,omitempty"`
}

// SemanticColors are status colors found by fixed RGB heuristics.
type SemanticColors struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Info    string `json:"info,omitempty"`
}

// ContrastIssue is a background/text pair below the WCAG 4.5:1 threshold.
type ContrastIssue struct {
	Background string  `json:"background"`
	Text       string  `json:"text"`
	Ratio      float64 `json:"ratio"`
	Level      string  `json:"level"` // "fail" (<3:1) or "aa-small-fail"
}

// ColorHarmony is the derived color relationship analysis.
type ColorHarmony struct {
	Roles     ColorRoles      `json:"roles"`
	Semantic  SemanticColors  `json:"semantic"`
	Palette   []string        `json:"palette"`
	Dominant  []string        `json:"dominant"`
	Issues    []ContrastIssue `json:"contrastIssues,omitempty"`
	HasIssues bool            `json:"hasContrastIssues"`
	Scheme    string          `json:"scheme"`
}

// SelectorMap maps structural regions to the first matching selector, empty
// when the region is absent. Plural categories hold a comma-joined union.
type SelectorMap struct {
	Header  string `json:"header,omitempty"`
	Nav     string `json:"nav,omitempty"`
	Main    string `json:"main,omitempty"`
	Sidebar string `json:"sidebar,omitempty"`
	Footer  string `json:"footer,omitempty"`
	Article string `json:"article,omitempty"`

	Buttons string `json:"buttons,omitempty"`
	Links   string `json:"links,omitempty"`
	Inputs  string `json:"inputs,omitempty"`
	Cards   string `json:"cards,omitempty"`
	Tables  string `json:"tables,omitempty"`

	Custom []string `json:"custom,omitempty"`
}

// Structure holds coarse page-shape flags.
type Structure struct {
	HasFixedHeader bool `json:"hasFixedHeader"`
	HasSidebar     bool `json:"hasSidebar"`
	HasCards       bool `json:"hasCards"`
	HasTables      bool `json:"hasTables"`
	HasModals      bool `json:"hasModals"`
	HasForms       bool `json:"hasForms"`
	HasImages      bool `json:"hasImages"`
	HasCode        bool `json:"hasCode"`
}

// Typography is the basic font summary.
type Typography struct {
	BodyFont     string   `json:"bodyFont"`
	BaseFontSize string   `json:"baseFontSize"`
	Fonts        []string `json:"fonts,omitempty"`
}

// AriaLabel records one labelled element.
type AriaLabel struct {
	Label      string `json:"label"`
	ElementTag string `json:"element"`
	Selector   string `json:"selector"`
	LabelledBy string `json:"labelledBy,omitempty"`
}

// Size is a rounded element size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ElementContext describes one interactive element with targeting hooks.
type ElementContext struct {
	Tag           string `json:"element"`
	TestID        string `json:"testId,omitempty"`
	AriaLabel     string `json:"ariaLabel,omitempty"`
	Role          string `json:"role,omitempty"`
	Selector      string `json:"selector"`
	ParentContext string `json:"parentContext,omitempty"`
	Size          Size   `json:"size"`
}

// FrameworkSignal is one framework fingerprint result.
type FrameworkSignal struct {
	Detected   bool     `json:"detected"`
	Confidence float64  `json:"confidence"`
	Selectors  []string `json:"selectors,omitempty"`
}

// Frameworks holds the fingerprints for the known frameworks.
type Frameworks struct {
	Tailwind   FrameworkSignal `json:"tailwind"`
	Bootstrap  FrameworkSignal `json:"bootstrap"`
	React      FrameworkSignal `json:"react"`
	Vue        FrameworkSignal `json:"vue"`
	MaterialUI FrameworkSignal `json:"materialUI"`
}

// CSSInJS reports build-tool generated class-name patterns.
type CSSInJS struct {
	Detected         bool     `json:"detected"`
	Patterns         []string `json:"patterns,omitempty"`
	HashedClassCount int      `json:"hashedClassCount"`
	Recommendation   string   `json:"recommendation,omitempty"`
}

// MediaFeatures flags preference media features seen in stylesheets.
type MediaFeatures struct {
	PrefersColorScheme   bool `json:"prefersColorScheme"`
	PrefersReducedMotion bool `json:"prefersReducedMotion"`
	PrefersContrast      bool `json:"prefersContrast"`
}

// MediaQueries summarizes breakpoints and preference features.
type MediaQueries struct {
	Breakpoints []string      `json:"breakpoints,omitempty"`
	Features    MediaFeatures `json:"features"`
}

// AnimatedElement records one element with a running CSS animation.
type AnimatedElement struct {
	Selector  string `json:"selector"`
	Animation string `json:"animation"`
}

// Animations summarizes keyframes and animated elements.
type Animations struct {
	Keyframes        []string          `json:"keyframes,omitempty"`
	AnimatedElements []AnimatedElement `json:"animatedElements,omitempty"`
	HasTransitions   bool              `json:"hasTransitions"`
}

// ShadowDOM reports attached shadow roots.
type ShadowDOM struct {
	Detected bool     `json:"detected"`
	Count    int      `json:"count"`
	Hosts    []string `json:"hosts,omitempty"`
}

// Layers maps the page's z-index usage.
type Layers struct {
	Values           map[string]int `json:"values,omitempty"`
	Categories       map[string]int `json:"categories,omitempty"`
	Max              int            `json:"max"`
	StackingContexts []string       `json:"stackingContexts,omitempty"`
}

// ElementCategories buckets the tags present by purpose. A tag may appear in
// more than one bucket.
type ElementCategories struct {
	Typography  []string `json:"typography,omitempty"`
	Semantic    []string `json:"semantic,omitempty"`
	Media       []string `json:"media,omitempty"`
	Interactive []string `json:"interactive,omitempty"`
	Forms       []string `json:"forms,omitempty"`
	Tables      []string `json:"tables,omitempty"`
	Lists       []string `json:"lists,omitempty"`
	Containers  []string `json:"containers,omitempty"`
}

// SVGInfo summarizes inline SVG usage.
type SVGInfo struct {
	Count     int      `json:"count"`
	Sizes     []string `json:"sizes,omitempty"`
	HasSprite bool     `json:"hasSprite"`
}

// IconFonts summarizes icon-font usage.
type IconFonts struct {
	Detected  bool     `json:"detected"`
	Libraries []string `json:"libraries,omitempty"`
	Classes   []string `json:"classes,omitempty"`
}

// Icons is the combined icon detection result.
type Icons struct {
	SVGs            SVGInfo   `json:"svgs"`
	Fonts           IconFonts `json:"fonts"`
	Recommendations []string  `json:"recommendations,omitempty"`
}

// FormStates flags which input states appear on the page.
type FormStates struct {
	HasRequired    bool `json:"hasRequired"`
	HasDisabled    bool `json:"hasDisabled"`
	HasReadonly    bool `json:"hasReadonly"`
	HasPattern     bool `json:"hasPattern"`
	HasPlaceholder bool `json:"hasPlaceholder"`
}

// FormStructure flags grouping/label structure.
type FormStructure struct {
	HasFieldsets bool `json:"hasFieldsets"`
	HasLegends   bool `json:"hasLegends"`
	HasLabels    bool `json:"hasLabels"`
}

// SelectInfo summarizes select elements.
type SelectInfo struct {
	Count        int  `json:"count"`
	HasOptgroups bool `json:"hasOptgroups"`
	HasMultiple  bool `json:"hasMultiple"`
}

// FormGroups counts radio groups and checkboxes.
type FormGroups struct {
	RadioGroups   int `json:"radioGroups"`
	CheckboxCount int `json:"checkboxCount"`
}

// Forms is the full form-surface analysis.
type Forms struct {
	Count       int           `json:"count"`
	InputTypes  []string      `json:"inputTypes,omitempty"`
	States      FormStates    `json:"states"`
	Structure   FormStructure `json:"structure"`
	Selects     SelectInfo    `json:"selects"`
	Groups      FormGroups    `json:"groups"`
	HasDatalist bool          `json:"hasDatalist"`
	Selectors   []string      `json:"selectors,omitempty"`
}

// PseudoElement records one generated ::before/::after.
type PseudoElement struct {
	Selector string `json:"selector"`
	Content  string `json:"content"`
}

// PseudoElements summarizes generated content usage.
type PseudoElements struct {
	Before          []PseudoElement `json:"before,omitempty"`
	After           []PseudoElement `json:"after,omitempty"`
	Selectors       []string        `json:"selectors,omitempty"`
	HasPlaceholders bool            `json:"hasPlaceholders"`
	Count           int             `json:"count"`
}

// ColorUsage counts one color's usage pattern.
type ColorUsage struct {
	Color string `json:"color"`
	Times int    `json:"times"`
}

// ColorInheritance compares inherited vs explicit usage of one color.
type ColorInheritance struct {
	Color     string  `json:"color"`
	Inherited int     `json:"inherited"`
	Explicit  int     `json:"explicit"`
	Ratio     float64 `json:"ratio"`
}

// FontUsage records one font family's usage.
type FontUsage struct {
	FontFamily string   `json:"fontFamily"`
	Count      int      `json:"count"`
	UsedBy     []string `json:"usedBy,omitempty"`
}

// RootStyles is the body-derived style baseline.
type RootStyles struct {
	FontFamily      string `json:"fontFamily"`
	FontSize        string `json:"fontSize"`
	LineHeight      string `json:"lineHeight"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
}

// Inheritance tracks which styles are inherited vs explicitly set.
type Inheritance struct {
	Inherited        []ColorUsage       `json:"inherited,omitempty"`
	Explicit         []ColorUsage       `json:"explicit,omitempty"`
	FontChain        []FontUsage        `json:"fontChain,omitempty"`
	ColorInheritance []ColorInheritance `json:"colorInheritance,omitempty"`
	UsesInherit      bool               `json:"usesInherit"`
	RootStyles       RootStyles         `json:"rootStyles"`
}

// Spacing is the detected spacing scale in integer pixels.
type Spacing struct {
	Padding []int `json:"padding,omitempty"`
	Margin  []int `json:"margin,omitempty"`
	Gap     []int `json:"gap,omitempty"`
	Scale   []int `json:"scale,omitempty"`
	Common  []int `json:"common,omitempty"`
}

// HeadingStyle is one heading level's measured style.
type HeadingStyle struct {
	FontSize   int    `json:"fontSize"`
	LineHeight string `json:"lineHeight"`
	FontWeight string `json:"fontWeight"`
}

// TypographyScale is the measured type scale.
type TypographyScale struct {
	Base          int                     `json:"base"`
	Headings      map[string]HeadingStyle `json:"headings,omitempty"`
	LineHeights   []string                `json:"lineHeights,omitempty"`
	FontWeights   []string                `json:"fontWeights,omitempty"`
	LetterSpacing []string                `json:"letterSpacing,omitempty"`
	Ratio         float64                 `json:"ratio,omitempty"`
}

// RadiusCategories is a histogram of border-radius sizes.
type RadiusCategories struct {
	None   int `json:"none"`
	Small  int `json:"small"`  // <=4px
	Medium int `json:"medium"` // <=12px
	Large  int `json:"large"`  // >12px
	Pill   int `json:"pill"`   // >=9999px or percentage
}

// ShadowLevels is a histogram of box-shadow intensity.
type ShadowLevels struct {
	None   int `json:"none"`
	Subtle int `json:"subtle"` // blur <=3px
	Medium int `json:"medium"` // blur <=10px
	Strong int `json:"strong"` // blur >10px
}

// BorderShadow summarizes border and shadow patterns.
type BorderShadow struct {
	BorderRadius     []string         `json:"borderRadius,omitempty"`
	BoxShadow        []string         `json:"boxShadow,omitempty"`
	BorderStyles     []string         `json:"borderStyles,omitempty"`
	BorderColors     []string         `json:"borderColors,omitempty"`
	RadiusCategories RadiusCategories `json:"radiusCategories"`
	ShadowLevels     ShadowLevels     `json:"shadowLevels"`
}
