package decode

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUTF8(t *testing.T) {
	tbl, err := Decode("shipment_history", []byte("Pickticket,Warehouse\nP1,W1\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Pickticket", "Warehouse"}, tbl.Columns())
	require.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, "P1", tbl.Cell(0, "Pickticket"))
}

func TestDecodeUTF8WithSignature(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Pickticket,Warehouse\nP1,W1\n")...)

	tbl, err := Decode("shipment_history", data)
	require.NoError(t, err)

	// The signature must not be glued onto the first header name.
	assert.Equal(t, []string{"Pickticket", "Warehouse"}, tbl.Columns())
}

func TestDecodeUTF16LittleEndian(t *testing.T) {
	text := "PickRoute,DeliveryDate\nP1,2024-01-05\n"
	units := utf16.Encode([]rune(text))
	data := []byte{0xFF, 0xFE} // BOM
	for _, u := range units {
		data = append(data, byte(u), byte(u>>8))
	}

	tbl, err := Decode("edi940", data)
	require.NoError(t, err)

	assert.Equal(t, []string{"PickRoute", "DeliveryDate"}, tbl.Columns())
	assert.Equal(t, "2024-01-05", tbl.Cell(0, "DeliveryDate"))
}

func TestDecodeLatin1(t *testing.T) {
	// "Montréal" with an ISO-8859-1 é (0xE9), which is invalid UTF-8.
	data := []byte("Pickticket,Ship To\nP1,Montr\xe9al\n")

	tbl, err := Decode("shipment_history", data)
	require.NoError(t, err)

	assert.Equal(t, "Montréal", tbl.Cell(0, "Ship To"))
}

func TestDecodeRaggedRowsFallsBackToLenientParse(t *testing.T) {
	// Second data row is short and the third is long; the strict legs all
	// reject it, the lenient pass normalizes to the header width. The odd
	// byte length keeps the BOM-less UTF-16 leg from mis-decoding it.
	data := []byte("A,B,C\n1,2,3\n4,55\n6,7,8,9\n")

	tbl, err := Decode("edib2bi", data)
	require.NoError(t, err)

	require.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, "", tbl.Cell(1, "C"))
	assert.Equal(t, "8", tbl.Cell(2, "C"))
}

func TestDecodeEmptyInput(t *testing.T) {
	_, err := Decode("edib2bi", nil)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, "edib2bi", decodeErr.Name)
	assert.Contains(t, decodeErr.Error(), "CSV read error")
}

func TestDecodeTotalFailureSurfacesFinalAttempt(t *testing.T) {
	// Blank lines fail every leg including the lenient pass. The error
	// must carry the last attempt's message, not a stale one from an
	// earlier encoding leg.
	_, err := Decode("edi940", []byte("\n\n\n"))

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Error(), "no columns to parse from file")
}
