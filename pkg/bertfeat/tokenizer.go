package bertfeat

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Token is one WordPiece output unit: its vocabulary id and the byte
// offsets into the original text it came from. Special tokens ([CLS],
// [SEP]) carry a zero-width (0,0) offset, matching how the tokenizers
// crate marks them.
type Token struct {
	ID    int64
	Start int
	End   int
}

// Tokenizer is a minimal WordPiece tokenizer compatible with the
// Chinese RoBERTa-wwm vocabulary: CJK characters are split one-per-token,
// Latin runs are lowercased and split on whitespace/punctuation, then
// greedy longest-match-first subword lookup against the vocab, falling
// back to [UNK].
type Tokenizer struct {
	vocab                map[string]int64
	clsID, sepID, unkID  int64
	maxInputCharsPerWord int
}

// NewTokenizer loads a vocab.txt where the line number is the token id.
func NewTokenizer(vocabPath string) (*Tokenizer, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("bertfeat: failed to open vocab %s: %w", vocabPath, err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	scanner := bufio.NewScanner(f)
	var id int64
	for scanner.Scan() {
		token := strings.TrimRight(scanner.Text(), "\r\n")
		if token == "" {
			id++
			continue
		}
		vocab[token] = id
		id++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("bertfeat: failed to read vocab %s: %w", vocabPath, err)
	}

	t := &Tokenizer{vocab: vocab, maxInputCharsPerWord: 100}
	t.clsID = t.idOf("[CLS]")
	t.sepID = t.idOf("[SEP]")
	t.unkID = t.idOf("[UNK]")
	return t, nil
}

func (t *Tokenizer) idOf(token string) int64 {
	if id, ok := t.vocab[token]; ok {
		return id
	}
	return 0
}

// Encode produces [CLS] basicTokens... [SEP], each entry carrying the
// vocab id and the byte span of its source basic token (subpieces of a
// split word all carry that word's span — the one simplification this
// tokenizer makes against the reference crate's per-subpiece offsets,
// harmless here since CJK input, the dominant case, never splits).
func (t *Tokenizer) Encode(text string) []Token {
	basics := basicTokenize(text)

	tokens := make([]Token, 0, len(basics)+2)
	tokens = append(tokens, Token{ID: t.clsID, Start: 0, End: 0})
	for _, b := range basics {
		for _, piece := range t.wordPiece(b.text) {
			tokens = append(tokens, Token{ID: piece, Start: b.start, End: b.end})
		}
	}
	tokens = append(tokens, Token{ID: t.sepID, Start: 0, End: 0})
	return tokens
}

func (t *Tokenizer) wordPiece(word string) []int64 {
	runes := []rune(word)
	if len(runes) > t.maxInputCharsPerWord {
		return []int64{t.unkID}
	}

	var out []int64
	start := 0
	for start < len(runes) {
		end := len(runes)
		var match string
		matched := false
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = "##" + candidate
			}
			if _, ok := t.vocab[candidate]; ok {
				match = candidate
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int64{t.unkID}
		}
		out = append(out, t.vocab[match])
		start = end
	}
	return out
}

type basicToken struct {
	text       string
	start, end int
}

// basicTokenize implements BERT's basic tokenization: whitespace split,
// CJK ideographs isolated as single-rune tokens, Unicode punctuation and
// symbol characters split off as single-rune tokens, and Latin text
// lowercased.
func basicTokenize(text string) []basicToken {
	var out []basicToken
	var buf strings.Builder
	bufStart := -1

	flush := func(end int) {
		if buf.Len() == 0 {
			return
		}
		out = append(out, basicToken{text: buf.String(), start: bufStart, end: end})
		buf.Reset()
		bufStart = -1
	}

	byteOffset := 0
	for _, r := range text {
		sz := len(string(r))
		switch {
		case unicode.IsSpace(r):
			flush(byteOffset)
		case isCJK(r):
			flush(byteOffset)
			out = append(out, basicToken{text: string(r), start: byteOffset, end: byteOffset + sz})
		case isASCIIPunct(r):
			flush(byteOffset)
			out = append(out, basicToken{text: string(r), start: byteOffset, end: byteOffset + sz})
		default:
			if bufStart == -1 {
				bufStart = byteOffset
			}
			buf.WriteRune(unicode.ToLower(r))
		}
		byteOffset += sz
	}
	flush(byteOffset)
	return out
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) ||
		(r >= 0x3400 && r <= 0x4DBF) ||
		(r >= 0xF900 && r <= 0xFAFF)
}

func isASCIIPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
