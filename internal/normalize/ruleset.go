// Package normalize turns inconsistently shaped PMS exports into cleaned,
// typed rows: it finds the real header row, maps source labels to canonical
// fields, classifies the file kind and drops summary or unusable lines.
//
// Every function here is pure. The keyword dictionaries live in an immutable
// Ruleset value that callers snapshot once per file.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

var ErrInvalidRuleset = errors.New("invalid_ruleset")

// Field is a canonical booking field name.
type Field string

const (
	FieldGuestName     Field = "guest_name"
	FieldCheckInDate   Field = "check_in_date"
	FieldBookingDate   Field = "booking_date"
	FieldRoomCount     Field = "room_count"
	FieldNightCount    Field = "night_count"
	FieldRoomRevenue   Field = "room_revenue"
	FieldTotalRevenue  Field = "total_revenue"
	FieldMarketSegment Field = "market_segment"
	FieldAccount       Field = "account"
	FieldRoomType      Field = "room_type"
	FieldNationality   Field = "nationality_raw"
)

// TextFields are back-filled with the unknown sentinel when unmapped.
var TextFields = []Field{FieldGuestName, FieldMarketSegment, FieldAccount, FieldRoomType, FieldNationality}

// NumericFields are back-filled with zero when unmapped.
var NumericFields = []Field{FieldRoomCount, FieldNightCount, FieldRoomRevenue, FieldTotalRevenue}

// FieldRule matches a normalized column label to a canonical field.
//
// A label matches when it contains any AnyOf keyword, or when every AllOf group
// has at least one keyword contained in it; and it contains no NoneOf keyword.
type FieldRule struct {
	Field  Field      `mapstructure:"field" json:"field"`
	AnyOf  []string   `mapstructure:"any_of" json:"any_of"`
	AllOf  [][]string `mapstructure:"all_of" json:"all_of"`
	NoneOf []string   `mapstructure:"none_of" json:"none_of"`
}

// TrailingBlock locates the grand-total columns of an OTB summary row,
// counted from the right edge (-1 is the last cell).
type TrailingBlock struct {
	RoomNightsOffset int `mapstructure:"room_nights_offset" json:"room_nights_offset"`
	ADROffset        int `mapstructure:"adr_offset" json:"adr_offset"`
	RevenueOffset    int `mapstructure:"revenue_offset" json:"revenue_offset"`
}

// Width is the minimum row length needed to read every offset.
func (b TrailingBlock) Width() int {
	width := 0
	for _, offset := range []int{b.RoomNightsOffset, b.ADROffset, b.RevenueOffset} {
		if -offset > width {
			width = -offset
		}
	}
	return width
}

// DefaultFormat names the trailing block used when a caller supplies no format.
const DefaultFormat = "default"

// Ruleset is the immutable configuration of one normalization pass.
type Ruleset struct {
	HeaderKeywords        []string                 `mapstructure:"header_keywords" json:"header_keywords"`
	MinHeaderHits         int                      `mapstructure:"min_header_hits" json:"min_header_hits"`
	Fields                []FieldRule              `mapstructure:"fields" json:"fields"`
	SubtotalMarkers       []string                 `mapstructure:"subtotal_markers" json:"subtotal_markers"`
	ChineseCodes          []string                 `mapstructure:"chinese_codes" json:"chinese_codes"`
	OTBFilenameMarkers    []string                 `mapstructure:"otb_filename_markers" json:"otb_filename_markers"`
	OTBContentMarkers     [][]string               `mapstructure:"otb_content_markers" json:"otb_content_markers"`
	CancelFilenameMarkers []string                 `mapstructure:"cancel_filename_markers" json:"cancel_filename_markers"`
	TrailingBlocks        map[string]TrailingBlock `mapstructure:"trailing_blocks" json:"trailing_blocks"`
	UnknownText           string                   `mapstructure:"unknown_text" json:"unknown_text"`
}

// DefaultRuleset returns the built-in dictionaries for Korean and English PMS exports.
func DefaultRuleset() Ruleset {
	return Ruleset{
		HeaderKeywords: []string{
			"name", "guest", "date", "checkin", "arrival", "room", "night",
			"고객", "성명", "투숙객", "입실", "일자", "객실", "박수", "예약",
		},
		MinHeaderHits: 2,
		Fields: []FieldRule{
			{
				Field: FieldBookingDate,
				AnyOf: []string{"예약일", "생성일", "등록일", "createdon", "createdat", "bookedon"},
				AllOf: [][]string{
					{"date", "일자", "일시", "날짜", "dt"},
					{"book", "create", "예약", "생성", "등록"},
				},
			},
			{
				Field:  FieldCheckInDate,
				AnyOf:  []string{"checkin", "arrival", "arrdate", "입실", "도착", "체크인", "투숙일", "staydate"},
				NoneOf: []string{"book", "create", "예약", "생성", "등록", "checkout", "퇴실"},
			},
			{
				Field:  FieldGuestName,
				AnyOf:  []string{"guestname", "guest", "name", "고객명", "투숙객", "성명", "고객", "이름"},
				NoneOf: []string{"room", "account", "company", "agent", "count", "pax", "객실", "거래처", "여행사", "회사", "인원"},
			},
			{
				Field:  FieldTotalRevenue,
				AnyOf:  []string{"total", "합계", "총액", "총매출", "총금액"},
				NoneOf: []string{"room", "객실", "night", "박"},
			},
			{
				Field: FieldRoomRevenue,
				AnyOf: []string{"roomrevenue", "roomrev", "roomcharge", "객실료", "객실매출", "객실요금", "숙박료", "revenue", "amount", "매출", "금액"},
			},
			{
				Field:  FieldNightCount,
				AnyOf:  []string{"nights", "night", "nts", "박수", "숙박일수", "los"},
				NoneOf: []string{"roomnight"},
			},
			{
				Field:  FieldRoomType,
				AnyOf:  []string{"roomtype", "rmtype", "객실타입", "객실유형", "룸타입", "type"},
				NoneOf: []string{"guest", "market", "pay"},
			},
			{
				Field:  FieldRoomCount,
				AnyOf:  []string{"room", "rmcnt", "객실수", "룸수", "실수"},
				NoneOf: []string{"type", "rate", "rev", "night", "charge", "roomno", "roomnumber", "번호"},
			},
			{
				Field: FieldMarketSegment,
				AnyOf: []string{"segment", "market", "시장", "세그먼트", "마켓"},
			},
			{
				Field:  FieldAccount,
				AnyOf:  []string{"account", "company", "agent", "channel", "거래처", "여행사", "회사", "채널"},
				NoneOf: []string{"number", "번호"},
			},
			{
				Field: FieldNationality,
				AnyOf: []string{"nationality", "nation", "country", "국적", "국가"},
			},
		},
		SubtotalMarkers:       []string{"total", "subtotal", "grandtotal", "합계", "소계", "총계", "총합계", "누계"},
		ChineseCodes:          []string{"CHN", "HKG", "TWN", "MAC"},
		OTBFilenameMarkers:    []string{"otb", "onthebook", "salesonthebook", "영업현황", "점유"},
		OTBContentMarkers:     [][]string{{"occ", "점유율"}, {"revpar"}},
		CancelFilenameMarkers: []string{"cancel", "cxl", "취소"},
		TrailingBlocks: map[string]TrailingBlock{
			DefaultFormat: {RoomNightsOffset: -5, ADROffset: -3, RevenueOffset: -1},
		},
		UnknownText: "Unknown",
	}
}

// Merge overlays every non-empty field of override onto r.
func (r Ruleset) Merge(override Ruleset) Ruleset {
	out := r
	if len(override.HeaderKeywords) > 0 {
		out.HeaderKeywords = override.HeaderKeywords
	}
	if override.MinHeaderHits > 0 {
		out.MinHeaderHits = override.MinHeaderHits
	}
	if len(override.Fields) > 0 {
		out.Fields = override.Fields
	}
	if len(override.SubtotalMarkers) > 0 {
		out.SubtotalMarkers = override.SubtotalMarkers
	}
	if len(override.ChineseCodes) > 0 {
		out.ChineseCodes = override.ChineseCodes
	}
	if len(override.OTBFilenameMarkers) > 0 {
		out.OTBFilenameMarkers = override.OTBFilenameMarkers
	}
	if len(override.OTBContentMarkers) > 0 {
		out.OTBContentMarkers = override.OTBContentMarkers
	}
	if len(override.CancelFilenameMarkers) > 0 {
		out.CancelFilenameMarkers = override.CancelFilenameMarkers
	}
	if len(override.TrailingBlocks) > 0 {
		blocks := make(map[string]TrailingBlock, len(r.TrailingBlocks)+len(override.TrailingBlocks))
		for name, block := range r.TrailingBlocks {
			blocks[name] = block
		}
		for name, block := range override.TrailingBlocks {
			blocks[FormatKey(name)] = block
		}
		out.TrailingBlocks = blocks
	}
	if strings.TrimSpace(override.UnknownText) != "" {
		out.UnknownText = override.UnknownText
	}
	return out
}

// Block returns the trailing block registered for format, falling back to the
// default block when the format is unknown or empty.
func (r Ruleset) Block(format string) (TrailingBlock, bool) {
	if block, ok := r.TrailingBlocks[FormatKey(format)]; ok {
		return block, true
	}
	block, ok := r.TrailingBlocks[DefaultFormat]
	return block, ok
}

// FormatKey normalizes a source-format name ("Opera OTB v2" → "opera-otb-v2").
func FormatKey(name string) string {
	key := slug.Make(strings.TrimSpace(name))
	if key == "" {
		return DefaultFormat
	}
	return key
}

// Unknown returns the text sentinel used for unmapped text fields.
func (r Ruleset) Unknown() string {
	if strings.TrimSpace(r.UnknownText) == "" {
		return "Unknown"
	}
	return r.UnknownText
}

// Validate rejects rulesets that cannot map a detail file or read an OTB file.
func (r Ruleset) Validate() error {
	hasCheckIn := false
	for _, rule := range r.Fields {
		if rule.Field == FieldCheckInDate && (len(rule.AnyOf) > 0 || len(rule.AllOf) > 0) {
			hasCheckIn = true
		}
	}
	if !hasCheckIn {
		return fmt.Errorf("%w: no rule maps %s", ErrInvalidRuleset, FieldCheckInDate)
	}
	if len(r.HeaderKeywords) == 0 {
		return fmt.Errorf("%w: header_keywords cannot be empty", ErrInvalidRuleset)
	}
	if _, ok := r.TrailingBlocks[DefaultFormat]; !ok {
		return fmt.Errorf("%w: trailing_blocks must define %q", ErrInvalidRuleset, DefaultFormat)
	}
	for name, block := range r.TrailingBlocks {
		if block.RoomNightsOffset >= 0 || block.ADROffset >= 0 || block.RevenueOffset >= 0 {
			return fmt.Errorf("%w: trailing block %q offsets must be negative", ErrInvalidRuleset, name)
		}
		if block.RoomNightsOffset == block.ADROffset || block.ADROffset == block.RevenueOffset || block.RoomNightsOffset == block.RevenueOffset {
			return fmt.Errorf("%w: trailing block %q offsets must be distinct", ErrInvalidRuleset, name)
		}
	}
	return nil
}
