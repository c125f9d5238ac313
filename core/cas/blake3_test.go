package cas

import (
	"strings"
	"testing"

	mushaferrors "github.com/FocuswithJustin/mushaf/core/errors"
)

const emptyDigest = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

func TestBlake3HashKnownVector(t *testing.T) {
	if got := Blake3Hash(nil); got != emptyDigest {
		t.Errorf("Blake3Hash(empty) = %s, want %s", got, emptyDigest)
	}
}

func TestHasherMatchesOneShot(t *testing.T) {
	data := []byte("1|1|بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ\n")
	h := NewHasher()
	h.Write(data[:5])
	h.Write(data[5:])
	if h.Hex() != Blake3Hash(data) {
		t.Errorf("streamed digest %s != one-shot %s", h.Hex(), Blake3Hash(data))
	}
	if h.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", h.Size(), len(data))
	}
}

func TestIsValidDigest(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{emptyDigest, true},
		{strings.ToUpper(emptyDigest), false},
		{emptyDigest[:63], false},
		{"", false},
		{strings.Repeat("g", 64), false},
	}
	for _, tt := range tests {
		if got := IsValidDigest(tt.in); got != tt.want {
			t.Errorf("IsValidDigest(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerify(t *testing.T) {
	data := []byte("CREATE TABLE parts (id INTEGER PRIMARY KEY);")
	if err := Verify("01-schema.sql", data, Blake3Hash(data)); err != nil {
		t.Errorf("Verify() = %v, want nil", err)
	}

	err := Verify("01-schema.sql", append(data, ' '), Blake3Hash(data))
	if !mushaferrors.Is(err, mushaferrors.ErrIntegrity) {
		t.Errorf("Verify(tampered) = %v, want IntegrityError", err)
	}
	if err == nil || !strings.Contains(err.Error(), "01-schema.sql") {
		t.Errorf("error should name the artifact: %v", err)
	}

	if err := Verify("x", data, "nope"); !mushaferrors.Is(err, mushaferrors.ErrIntegrity) {
		t.Errorf("Verify(malformed) = %v, want IntegrityError", err)
	}
}
