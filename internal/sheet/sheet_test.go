package sheet

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

func TestReadCSVTrimsAndDropsTrailingBlanks(t *testing.T) {
	input := "Hotel Report,,\n,,\nGuest Name, Check-In ,Room\nKim,2025-05-10,1\n,,\n"

	raw, err := Read("bookings.csv", strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, raw, 4)
	assert.Equal(t, []string{"Hotel Report"}, raw[0])
	assert.Empty(t, raw[1])
	assert.Equal(t, []string{"Guest Name", "Check-In", "Room"}, raw[2])
	assert.Equal(t, []string{"Kim", "2025-05-10", "1"}, raw[3])
}

func TestReadCSVStripsBOM(t *testing.T) {
	input := "\ufeff고객명,입실일자\n홍길동,2025-05-10\n"

	raw, err := Read("list.csv", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "고객명", raw[0][0])
}

func TestReadCSVDecodesEUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String("고객명,입실일자\n홍길동,2025-05-10\n")
	require.NoError(t, err)

	raw, err := Read("list.csv", strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, []string{"고객명", "입실일자"}, raw[0])
	assert.Equal(t, "홍길동", raw[1][0])
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Guest Name", "Check-In", "Rooms"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Lee", "2025-06-01", 2}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	raw, err := Read("export.xlsx", &buf)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.Equal(t, []string{"Lee", "2025-06-01", "2"}, raw[1])
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	_, err := Read("report.pdf", strings.NewReader("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestReadRejectsEmptyFile(t *testing.T) {
	_, err := Read("empty.csv", strings.NewReader("\n,,\n"))
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

func TestCellOutOfRange(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "b", Cell(row, 1))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}
