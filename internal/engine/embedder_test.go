package engine

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 0}, []float64{1, 0, 0}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"scaled", []float64{2, 0}, []float64{5, 0}, 1.0},
		{"mismatched dims", []float64{1, 0}, []float64{1, 0, 0}, 0.0},
		{"empty", nil, nil, 0.0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0.0},
	}
	for _, c := range cases {
		got := CosineSimilarity(c.a, c.b)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: CosineSimilarity = %f, want %f", c.name, got, c.want)
		}
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	emb := NewHashEmbedder(128)

	a, err := emb.Embed(context.Background(), "the old oak tree in my backyard")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := emb.Embed(context.Background(), "the old oak tree in my backyard")

	if sim := CosineSimilarity(a, b); sim < 0.9999 {
		t.Errorf("identical input similarity = %f, want 1.0", sim)
	}

	// A second embedder instance must land in the same space.
	other := NewHashEmbedder(128)
	c, _ := other.Embed(context.Background(), "the old oak tree in my backyard")
	if sim := CosineSimilarity(a, c); sim < 0.9999 {
		t.Errorf("cross-instance similarity = %f, want 1.0", sim)
	}
}

func TestHashEmbedderOverlapOrdering(t *testing.T) {
	emb := NewHashEmbedder(512)
	ctx := context.Background()

	enrolled, _ := emb.Embed(ctx, "the old oak tree in my backyard where i built a fort")
	near, _ := emb.Embed(ctx, "the oak tree in my backyard with the fort")
	far, _ := emb.Embed(ctx, "quantum chromodynamics lecture notes")

	simClose := CosineSimilarity(enrolled, near)
	simFar := CosineSimilarity(enrolled, far)
	if simClose <= simFar {
		t.Errorf("overlap ordering violated: close %f <= far %f", simClose, simFar)
	}
}

func TestHashEmbedderNormalized(t *testing.T) {
	emb := NewHashEmbedder(64)

	vec, _ := emb.Embed(context.Background(), "some reasonably long input text here")
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("L2 norm squared = %f, want 1.0", sum)
	}
}

func TestHashEmbedderEmptyInput(t *testing.T) {
	emb := NewHashEmbedder(64)

	vec, err := emb.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 64 {
		t.Fatalf("dims = %d, want 64", len(vec))
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("vec[%d] = %f, want 0", i, v)
		}
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("The Old-Oak tree, by my house! x")
	want := []string{"the", "old-oak", "tree", "by", "my", "house"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}
