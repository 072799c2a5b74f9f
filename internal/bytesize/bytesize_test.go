package bytesize

import (
	"testing"

	"github.com/mitchellh/mapstructure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    ByteSize
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "1024", want: 1024},
		{input: "512b", want: 512},
		{input: "64KiB", want: 64 * 1024},
		{input: "64ki", want: 64 * 1024},
		{input: "1MiB", want: MiB},
		{input: "2Gi", want: 2 * GiB},
		{input: "1K", want: 1000},
		{input: "10MB", want: 10 * MB},
		{input: " 1.5 MiB ", want: MiB + MiB/2},
		{input: "", wantErr: true},
		{input: "MiB", wantErr: true},
		{input: "10XB", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "1.2.3K", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "0", ByteSize(0).String())
	assert.Equal(t, "1000", ByteSize(1000).String())
	assert.Equal(t, "64KiB", (64 * KiB).String())
	assert.Equal(t, "3MiB", (3 * MiB).String())
	assert.Equal(t, "1GiB", GiB.String())

	text, err := (64 * KiB).MarshalText()
	require.NoError(t, err)
	var back ByteSize
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, 64*KiB, back)
}

func TestDecodeHook(t *testing.T) {
	var out struct {
		Limit ByteSize `mapstructure:"limit"`
		Plain ByteSize `mapstructure:"plain"`
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &out,
	})
	require.NoError(t, err)
	require.NoError(t, dec.Decode(map[string]any{"limit": "16KiB", "plain": 2048}))

	assert.Equal(t, 16*KiB, out.Limit)
	assert.Equal(t, ByteSize(2048), out.Plain)
}
