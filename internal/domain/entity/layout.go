package entity

import "time"

// PDFLayoutConfig is a named, versioned page template for one quote variant.
// Its JSON form is the import/export format of the layout library.
type PDFLayoutConfig struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Variant         Variant           `json:"variant"`
	Version         int               `json:"version"`
	Page            *PageGeometry     `json:"page"`
	Blocks          []LayoutBlock     `json:"blocks"`
	VisibilityRules map[string]string `json:"visibilityRules,omitempty"`
	CreatedAt       time.Time         `json:"createdAt,omitempty"`
	UpdatedAt       time.Time         `json:"updatedAt,omitempty"`
}

// PageGeometry describes the physical page and the coordinate model of its blocks.
type PageGeometry struct {
	Format      string  `json:"format,omitempty"`      // A4, A5, Letter, Legal; empty means explicit size
	Orientation string  `json:"orientation,omitempty"` // portrait (default) or landscape
	Width       float64 `json:"width,omitempty"`       // mm, overrides Format when set with Height
	Height      float64 `json:"height,omitempty"`      // mm
	Unit        Unit    `json:"unit,omitempty"`        // coordinate unit of blocks, mm (default) or %
	Margins     Margins `json:"margins"`
}

// Margins are expressed in millimeters.
type Margins struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Unit is a coordinate unit for block placement.
type Unit string

// Coordinate units
const (
	UnitMillimeter Unit = "mm"
	UnitPercent    Unit = "%"
)

// BlockType identifies how a layout block is rendered.
type BlockType string

// Block types
const (
	BlockHeader      BlockType = "header"
	BlockFooter      BlockType = "footer"
	BlockIntent      BlockType = "intent"
	BlockLetter      BlockType = "letter"
	BlockDescription BlockType = "description"
	BlockTableTech   BlockType = "table_tech"
	BlockTableAgent  BlockType = "table_agent"
	BlockTotals      BlockType = "totals"
	BlockSignatures  BlockType = "signatures"
	BlockText        BlockType = "text"
	BlockImage       BlockType = "image"
	BlockSeparator   BlockType = "separator"
	BlockPageBreak   BlockType = "page-break"
)

// Section is the logical page a block belongs to.
type Section string

// Logical page sections, in document order
const (
	SectionCover       Section = "cover"
	SectionDescription Section = "description"
	SectionContent     Section = "content"
)

// LayoutBlock is one positioned element of a layout.
type LayoutBlock struct {
	ID     string    `json:"id"`
	Type   BlockType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`

	// Unit overrides the layout unit for this block; it is converted to the layout unit at render time.
	Unit    Unit        `json:"unit,omitempty"`
	ZIndex  int         `json:"zIndex"`
	Visible *bool       `json:"visible,omitempty"`
	Locked  bool        `json:"locked,omitempty"`
	Style   *BlockStyle `json:"style,omitempty"`

	// Bindings maps a field name to a token expression such as "{{quote.ref}}".
	Bindings map[string]string `json:"bindings,omitempty"`
	Content  string            `json:"content,omitempty"`

	VisibleIf   string       `json:"visibleIf,omitempty"`
	TableConfig *TableConfig `json:"tableConfig,omitempty"`

	Section Section `json:"section,omitempty"`

	// AttachedTo names a table block; this block is dropped when that table renders empty.
	AttachedTo string `json:"attachedTo,omitempty"`
}

// IsVisible treats a missing visible flag as visible.
func (b LayoutBlock) IsVisible() bool {
	return b.Visible == nil || *b.Visible
}

// BlockStyle is the presentation of a block; zero values mean "not set".
type BlockStyle struct {
	FontSize        float64 `json:"fontSize,omitempty"`
	FontWeight      string  `json:"fontWeight,omitempty"`
	FontStyle       string  `json:"fontStyle,omitempty"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	Color           string  `json:"color,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	TextAlign       string  `json:"textAlign,omitempty"`
	LineHeight      float64 `json:"lineHeight,omitempty"`
	BorderWidth     float64 `json:"borderWidth,omitempty"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BorderStyle     string  `json:"borderStyle,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	Padding         float64 `json:"padding,omitempty"`
	Opacity         float64 `json:"opacity,omitempty"`
}

// TableConfig configures the table of a table_tech or table_agent block.
type TableConfig struct {
	Dataset     string        `json:"dataset"` // e.g. items.tech
	Columns     []TableColumn `json:"columns"`
	ShowHeader  *bool         `json:"showHeader,omitempty"`
	StripedRows bool          `json:"stripedRows,omitempty"`
	HeaderColor string        `json:"headerColor,omitempty"`
	FontSize    float64       `json:"fontSize,omitempty"`
}

// HeaderShown treats a missing flag as shown.
func (c TableConfig) HeaderShown() bool {
	return c.ShowHeader == nil || *c.ShowHeader
}

// ColumnFormat selects per-cell formatting.
type ColumnFormat string

// Column formats
const (
	FormatText     ColumnFormat = "text"
	FormatNumber   ColumnFormat = "number"
	FormatCurrency ColumnFormat = "currency"
	FormatDate     ColumnFormat = "date"
	FormatTime     ColumnFormat = "time"
	FormatHours    ColumnFormat = "hours"
)

// TableColumn is one column of a table block. Order, not slice position,
// decides the left-to-right sequence.
type TableColumn struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	Binding   string       `json:"binding"`
	Width     float64      `json:"width,omitempty"`
	WidthUnit string       `json:"widthUnit,omitempty"` // %, mm, px; empty means auto
	Align     string       `json:"align,omitempty"`
	Format    ColumnFormat `json:"format,omitempty"`
	Visible   bool         `json:"visible"`
	Order     int          `json:"order"`
}
