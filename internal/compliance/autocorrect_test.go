package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoCorrect(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "最好的文案", want: "可能好的文案"},
		{in: "销量第一，绝对有效", want: "销量前列，建议有效"},
		{in: "最最", want: "可能可能"},
		{in: "普通文本", want: "普通文本"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AutoCorrect(tt.in), tt.in)
	}
}

func TestApplyIsSequential(t *testing.T) {
	rules := []Rule{{Word: "a", Replacement: "b"}, {Word: "b", Replacement: "c"}}
	assert.Equal(t, "cc", Apply("ab", rules))
	assert.Equal(t, "x", Apply("x", []Rule{{Word: "", Replacement: "y"}}))
}

func TestFindings(t *testing.T) {
	got := Findings("全网最低价，最划算，行业第一")
	assert.Equal(t, []Finding{
		{Word: "最", Replacement: "可能", Count: 2},
		{Word: "第一", Replacement: "前列", Count: 1},
	}, got)
	assert.Empty(t, Findings("安全的表述"))
}
