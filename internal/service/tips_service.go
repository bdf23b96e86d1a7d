package service

import (
	"bufio"
	"io"
	"math/rand/v2"
	"os"
	"strings"
)

const DefaultTipCount = 5

type TipsService struct {
	tips    []string
	shuffle func(n int, swap func(i, j int))
}

func NewTipsService(tips []string) *TipsService {
	return &TipsService{tips: tips, shuffle: rand.Shuffle}
}

func LoadTipsFile(path string) (*TipsService, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tips, err := ParseTips(f)
	if err != nil {
		return nil, err
	}
	return NewTipsService(tips), nil
}

// ParseTips reads a numbered list ("12. Drink water.") and keeps the text
// after the first period of each line. Lines without a period are skipped.
func ParseTips(r io.Reader) ([]string, error) {
	var tips []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		_, text, ok := strings.Cut(scanner.Text(), ".")
		if !ok {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			tips = append(tips, text)
		}
	}
	return tips, scanner.Err()
}

// Random returns n distinct tips, or all of them when fewer are loaded.
func (s *TipsService) Random(n int) []string {
	idx := make([]int, len(s.tips))
	for i := range idx {
		idx[i] = i
	}
	s.shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	if n > len(idx) {
		n = len(idx)
	}
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, s.tips[i])
	}
	return out
}
