package identity

import (
	"strings"
	"testing"

	"ReviewScanner/internal/domain"
)

func rating(v float64) *float64 { return &v }

func TestKeyUsesUpstreamID(t *testing.T) {
	t.Parallel()

	r := domain.Review{EntityID: "B000TEST01", RecordID: " R1ABCD ", Title: "great"}
	if got := Key(r); got != "B000TEST01|R1ABCD" {
		t.Fatalf("unexpected key: %s", got)
	}

	// The key must not move when mutable content changes.
	r.Body = "edited later"
	if got := Key(r); got != "B000TEST01|R1ABCD" {
		t.Fatalf("key changed with content: %s", got)
	}
}

func TestKeyFallsBackToContentHash(t *testing.T) {
	t.Parallel()

	base := domain.Review{
		EntityID:     "B000TEST01",
		RecordID:     "FALLBACK-0007",
		TimestampRaw: "2024-03-05T10:30:00Z",
		Rating:       rating(5),
		Title:        "Great product",
		Body:         "Works as described.",
	}

	k1 := Key(base)
	if !strings.HasPrefix(k1, "B000TEST01|SHA1-") {
		t.Fatalf("fallback key missing hash marker: %s", k1)
	}
	if k2 := Key(base); k2 != k1 {
		t.Fatalf("key not deterministic: %s vs %s", k1, k2)
	}

	edited := base
	edited.Body = "Works as described!"
	if Key(edited) == k1 {
		t.Fatal("one-character body change kept the same key")
	}
}

func TestKeySecondsApartStayDistinct(t *testing.T) {
	t.Parallel()

	a := domain.Review{
		EntityID:     "B000TEST01",
		TimestampRaw: "2024-03-05T10:30:00Z",
		Rating:       rating(5),
		Title:        "Great",
		Body:         "Same text",
	}
	b := a
	b.TimestampRaw = "2024-03-05T10:30:30Z"

	if Key(a) == Key(b) {
		t.Fatal("records 30s apart collapsed to one key")
	}

	// Near-duplicate tags, by contrast, land in the same minute bucket.
	bucketA, hashA := Tag(a)
	bucketB, hashB := Tag(b)
	if bucketA != bucketB {
		t.Fatalf("minute buckets differ: %s vs %s", bucketA, bucketB)
	}
	if hashA != hashB {
		t.Fatal("identical content produced different hashes")
	}
}

func TestTagUnparseableTimestamp(t *testing.T) {
	t.Parallel()

	bucket, hash := Tag(domain.Review{EntityID: "B1", TimestampRaw: "not a date", Title: "x"})
	if bucket != "" {
		t.Fatalf("expected empty bucket, got %s", bucket)
	}
	if hash == "" {
		t.Fatal("content hash must always be produced")
	}
}

func TestTagNormalizesAndTruncates(t *testing.T) {
	t.Parallel()

	a := domain.Review{Title: "  Great   PRODUCT ", Body: "works\tfine"}
	b := domain.Review{Title: "great product", Body: "works fine"}
	_, hashA := Tag(a)
	_, hashB := Tag(b)
	if hashA != hashB {
		t.Fatal("whitespace and case should not change the hash")
	}

	long := strings.Repeat("x", 400)
	c := domain.Review{Title: "t", Body: long + "alpha"}
	d := domain.Review{Title: "t", Body: long + "omega"}
	_, hashC := Tag(c)
	_, hashD := Tag(d)
	if hashC != hashD {
		t.Fatal("text beyond the hash limit should be ignored")
	}
}

func TestApplyFillsDerivedFields(t *testing.T) {
	t.Parallel()

	r := domain.Review{EntityID: "B1", TimestampRaw: "2024-03-05 10:30:45", Title: "ok", Body: "fine"}
	Apply(&r)
	if r.NearDupMinBucket != "2024-03-05T10:30:00" {
		t.Fatalf("unexpected bucket: %s", r.NearDupMinBucket)
	}
	if r.ContentHash200 == "" {
		t.Fatal("content hash not set")
	}
}
