package textenc

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{name: "empty means utf-8", label: ""},
		{name: "utf-8", label: "utf-8"},
		{name: "utf8 spelling", label: "UTF8"},
		{name: "cp1251 label", label: "cp1251"},
		{name: "windows-1252", label: "windows-1252"},
		{name: "latin1", label: "latin1"},
		{name: "unknown", label: "no-such-encoding", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Lookup(tt.label)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownEncoding))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestEncodeDecodeCyrillic(t *testing.T) {
	encoded, err := Encode("Привет", "cp1251")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}, encoded)

	decoded, err := Decode(encoded, "windows-1251")
	require.NoError(t, err)
	assert.Equal(t, "Привет", decoded)
}

func TestEncodeUTF8IsIdentity(t *testing.T) {
	out, err := Encode("héllo", "utf-8")
	require.NoError(t, err)
	assert.Equal(t, []byte("héllo"), out)
	assert.True(t, IsUTF8(""))
	assert.False(t, IsUTF8("cp1251"))
}

func TestEncodeUnrepresentable(t *testing.T) {
	_, err := Encode("日本", "windows-1252")
	assert.Error(t, err)
}

func TestNewReaderStripsBOM(t *testing.T) {
	r, err := NewReader(strings.NewReader("\xEF\xBB\xBFID;Name"), "utf-8")
	require.NoError(t, err)
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ID;Name", string(out))
}
