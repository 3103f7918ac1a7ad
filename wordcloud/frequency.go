package wordcloud

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// WordCount is one entry of the frequency table.
type WordCount struct {
	Word  string
	Count int
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_][\p{L}\p{N}_']+`)

// Tokenize splits text into candidate words: two or more word characters,
// possessive 's removed, bare numbers dropped. Case is preserved.
func Tokenize(text string) []string {
	raw := wordPattern.FindAllString(text, -1)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w, ok := normalize(w); ok {
			words = append(words, w)
		}
	}
	return words
}

func normalize(w string) (string, bool) {
	if strings.HasSuffix(strings.ToLower(w), "'s") {
		w = w[:len(w)-2]
	}
	w = strings.Trim(w, "'")
	if w == "" || isNumber(w) {
		return "", false
	}
	return w, true
}

func isNumber(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Frequencies counts the non-stopword tokens of text. Case variants are folded
// into their most common spelling and plurals into an existing singular.
// With collocations enabled, adjacent pairs seen at least twice are counted as
// a single "first second" term and taken out of their unigram counts.
func Frequencies(text string, stopwords map[string]struct{}, collocations bool) []WordCount {
	if stopwords == nil {
		stopwords = Stopwords
	}

	// stopwords match the word as written, so "let's" goes before it can
	// become "let"
	var kept []string
	for _, w := range wordPattern.FindAllString(text, -1) {
		if _, stop := stopwords[strings.ToLower(w)]; stop {
			continue
		}
		w, ok := normalize(w)
		if !ok {
			continue
		}
		if _, stop := stopwords[strings.ToLower(w)]; !stop {
			kept = append(kept, w)
		}
	}

	counts := foldCounts(kept)
	if collocations {
		mergeBigrams(counts, kept)
	}

	out := make([]WordCount, 0, len(counts))
	for _, c := range counts {
		if c.Count > 0 {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// foldCounts keys counts by lower-cased word, displaying the most frequent
// surface form, then merges "words" into "word" when both appear.
func foldCounts(words []string) map[string]*WordCount {
	variants := make(map[string]map[string]int)
	for _, w := range words {
		key := strings.ToLower(w)
		if variants[key] == nil {
			variants[key] = make(map[string]int)
		}
		variants[key][w]++
	}

	counts := make(map[string]*WordCount, len(variants))
	for key, forms := range variants {
		best, total := "", 0
		for form, n := range forms {
			total += n
			if n > forms[best] || (n == forms[best] && form < best) {
				best = form
			}
		}
		counts[key] = &WordCount{Word: best, Count: total}
	}

	for key, wc := range counts {
		if !strings.HasSuffix(key, "s") || strings.HasSuffix(key, "ss") {
			continue
		}
		if singular, ok := counts[key[:len(key)-1]]; ok {
			singular.Count += wc.Count
			delete(counts, key)
		}
	}
	return counts
}

// mergeBigrams counts a pair only where its words have not already been
// claimed by an earlier pair, so no unigram goes below zero.
func mergeBigrams(counts map[string]*WordCount, words []string) {
	pairs := make(map[[2]string]int)
	for i := 0; i+1 < len(words); i++ {
		a, b := strings.ToLower(words[i]), strings.ToLower(words[i+1])
		if a == b {
			continue
		}
		pairs[[2]string{a, b}]++
	}

	used := make(map[[2]string]int)
	for i := 0; i+1 < len(words); i++ {
		pair := [2]string{strings.ToLower(words[i]), strings.ToLower(words[i+1])}
		if pairs[pair] < 2 {
			continue
		}
		_, okA := counts[pair[0]]
		_, okB := counts[pair[1]]
		if !okA || !okB {
			// one side was folded into its singular; leave the unigrams alone
			continue
		}
		used[pair]++
		i++
	}

	for pair, n := range used {
		if n < 2 {
			continue
		}
		first, second := counts[pair[0]], counts[pair[1]]
		key := pair[0] + " " + pair[1]
		counts[key] = &WordCount{Word: first.Word + " " + second.Word, Count: n}
		first.Count -= n
		second.Count -= n
	}
}
