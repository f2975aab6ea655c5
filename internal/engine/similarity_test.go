package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flipfinder/flipfinder/internal/domain"
)

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical titles",
			a:    "Nintendo Switch OLED Console",
			b:    "Nintendo Switch OLED Console",
			want: 1.0,
		},
		{
			name: "case and punctuation ignored",
			a:    "Sony Wireless Headphones, Black!!!",
			b:    "sony wireless headphones black",
			want: 1.0,
		},
		{
			name: "no overlap",
			a:    "Vintage Leather Jacket",
			b:    "Kitchen Stand Mixer",
			want: 0.0,
		},
		{
			name: "partial overlap",
			// {apple, iphone, pro, 128gb, space, black} vs
			// {iphone, pro, 128gb, space, black, unlocked}: 5 shared of 7.
			a:    "Apple iPhone 14 Pro 128GB Space Black",
			b:    "iPhone 14 Pro 128GB Space Black Unlocked",
			want: 5.0 / 7.0,
		},
		{
			name: "short tokens dropped",
			// "14" and "GB" never survive normalization.
			a:    "iPhone 14",
			b:    "iPhone 14 GB",
			want: 1.0,
		},
		{
			name: "both empty after normalization",
			a:    "!! ?? --",
			b:    "a b c",
			want: 0.0,
		},
		{
			name: "one side empty",
			a:    "PlayStation Five",
			b:    "",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleSimilarity(tt.a, tt.b), 1e-9)
			// Jaccard is symmetric.
			assert.InDelta(t, tt.want, TitleSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestMatchListings(t *testing.T) {
	source := domain.Listing{
		Marketplace: domain.MarketplaceFacebook,
		ListingID:   "fb-1",
		Title:       "Apple iPhone 14 Pro 128GB Space Black",
	}
	targets := []domain.Listing{
		{ListingID: "t-1", Title: "iPhone 14 Pro 128GB Space Black Unlocked"},
		{ListingID: "t-2", Title: "Kitchen Stand Mixer"},
		{ListingID: "t-3", Title: "Apple iPhone 14 Pro 128GB Space Black"},
	}

	t.Run("moderate threshold keeps plausible matches in order", func(t *testing.T) {
		matched := MatchListings(source, targets, 0.3)
		require.Len(t, matched, 2)
		assert.Equal(t, "t-1", matched[0].ListingID)
		assert.Equal(t, "t-3", matched[1].ListingID)
	})

	t.Run("high threshold excludes rephrased titles", func(t *testing.T) {
		matched := MatchListings(source, targets, 0.9)
		require.Len(t, matched, 1)
		assert.Equal(t, "t-3", matched[0].ListingID)
	})

	t.Run("threshold zero matches everything with a non-empty union", func(t *testing.T) {
		matched := MatchListings(source, targets, 0)
		assert.Len(t, matched, 3)
	})

	t.Run("empty-union pairs never match, even at threshold zero", func(t *testing.T) {
		blank := domain.Listing{Title: "-- !!"}
		matched := MatchListings(blank, []domain.Listing{{Title: "?? .."}}, 0)
		assert.Empty(t, matched)
	})

	t.Run("raising the threshold never grows the matched set", func(t *testing.T) {
		prev := len(MatchListings(source, targets, 0))
		for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
			n := len(MatchListings(source, targets, threshold))
			assert.LessOrEqual(t, n, prev, "threshold %v", threshold)
			prev = n
		}
	})
}
