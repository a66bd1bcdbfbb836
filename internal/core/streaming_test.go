package core

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportReader(t *testing.T) {
	bom := []byte{0xEF, 0xBB, 0xBF}
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{name: "plain ascii", input: []byte("AT-001,pump"), want: "AT-001,pump"},
		{name: "bom stripped", input: append(append([]byte{}, bom...), "AT-001"...), want: "AT-001"},
		{name: "only bom", input: bom, want: ""},
		{name: "empty", input: nil, want: ""},
		{name: "partial bom replaced", input: []byte{0xEF, 0xBB, 'a'}, want: "??a"},
		{name: "short input", input: []byte("ab"), want: "ab"},
		{name: "multibyte kept", input: []byte("部品番号,価格"), want: "部品番号,価格"},
		{name: "invalid byte replaced", input: []byte{'A', 0x80, 'B'}, want: "A?B"},
		{name: "shift_jis bytes replaced", input: []byte{0x95, 0x94, ',', '1'}, want: "??,1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newImportReader(bytes.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestImportReader_RuneSplitAcrossReads(t *testing.T) {
	// OneByteReader hands out every byte of a multi-byte rune separately.
	input := "\xEF\xBB\xBF部品,ﾄﾙｸｺﾝﾊﾞｰﾀ\n"
	got, err := io.ReadAll(newImportReader(iotest.OneByteReader(bytes.NewReader([]byte(input)))))
	require.NoError(t, err)
	assert.Equal(t, "部品,ﾄﾙｸｺﾝﾊﾞｰﾀ\n", string(got))
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AT-001", "AT-001"},
		{"  AT-001  ", "AT-001"},
		{"", ""},
		{`="00123"`, "00123"},
		{` =" 00123 " `, "00123"},
		{`=SUM(A1)`, "=SUM(A1)"},
		{`"quoted"`, `"quoted"`},
		{`="`, `="`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanCell(tt.in))
		})
	}
}
