package slug

import (
	"math"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/KretovDmitry/hashlink/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// slugRegexp matches padded URL-safe base64 of exactly 8 bytes.
var slugRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{11}=$`)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		fp   int64
		want string
	}{
		{"zero", 0, "AAAAAAAAAAA="},
		{"one", 1, "AQAAAAAAAAA="},
		{"minus one", -1, "__________8="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.fp))
		})
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 42, 1 << 32, -(1 << 32),
		math.MaxInt64, math.MinInt64,
		Fingerprint("https://example.com/a"),
	}
	for _, v := range values {
		s := Encode(v)
		assert.Len(t, s, Len)

		got, err := Decode(s)
		require.NoError(t, err, "decode %q", s)
		assert.Equal(t, v, got)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		slug string
	}{
		{"empty", ""},
		{"not base64", "not a slug!"},
		{"too short", "AAAA"},
		{"too long", "AAAAAAAAAAAAAAAA"},
		{"standard alphabet", "+/+/+/+/+/8="},
		{"missing padding", "AQAAAAAAAAA"},
		{"nine bytes", "AAAAAAAAAAAA"},
		{"non-zero padding bits", "AAAAAAAAAAB="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.slug)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrDecode)
		})
	}
}

func TestFingerprint(t *testing.T) {
	// xxHash64 of the empty input with seed 0.
	assert.Equal(t, uint64(0xef46db3751d8e999), uint64(Fingerprint("")))

	a := Fingerprint("https://example.com/a")
	assert.Equal(t, a, Fingerprint("https://example.com/a"), "must be deterministic")
	assert.NotEqual(t, a, Fingerprint("https://example.com/b"))
	assert.NotEqual(t, Fingerprint("ab"), Fingerprint("ba"), "must be order sensitive")
}

func TestFromURL(t *testing.T) {
	fp, s := FromURL("https://go.dev")
	assert.Equal(t, Fingerprint("https://go.dev"), fp)
	assert.Equal(t, Encode(fp), s)
}

func FuzzEncode(f *testing.F) {
	for _, tc := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		f.Add(tc)
	}

	f.Fuzz(func(t *testing.T, fp int64) {
		s := Encode(fp)
		assert.True(t, slugRegexp.MatchString(s), "unexpected slug format %q", s)

		got, err := Decode(s)
		require.NoError(t, err)
		assert.Equal(t, fp, got)
	})
}

func FuzzDecode(f *testing.F) {
	for _, tc := range []string{"", "AAAAAAAAAAA=", "__________8=", "abc", "===="} {
		f.Add(tc)
	}

	f.Fuzz(func(t *testing.T, s string) {
		fp, err := Decode(s)
		if err != nil {
			assert.ErrorIs(t, err, errs.ErrDecode)
			return
		}
		got, err := Decode(Encode(fp))
		require.NoError(t, err)
		assert.Equal(t, fp, got)
	})
}

func BenchmarkFingerprintLen100(b *testing.B) {
	rand.New(rand.NewSource(time.Now().UnixNano()))
	randStr := randString(100)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = Fingerprint(randStr)
	}
}

func BenchmarkEncodeDecode(b *testing.B) {
	fp := Fingerprint(randString(100))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _ = Decode(Encode(fp))
	}
}

func randString(length uint) string {
	b := make([]byte, length)
	ln := len(alphabet)
	for i := range b {
		b[i] = alphabet[rand.Intn(ln)]
	}
	return string(b)
}
