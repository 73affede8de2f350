package numeral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceNumbersIntegers(t *testing.T) {
	assert.Equal(t, "我有一百二十三个苹果", ReplaceNumbers("我有123个苹果"))
}

func TestReplaceNumbersDecimal(t *testing.T) {
	assert.Equal(t, "价格是零点五元", ReplaceNumbers("价格是0.5元"))
}

func TestAn2CnZero(t *testing.T) {
	assert.Equal(t, "零", An2Cn("0"))
}

func TestAn2CnTeensDropLeadingYi(t *testing.T) {
	assert.Equal(t, "十五", An2Cn("15"))
}

func TestAn2CnHundredsWithInternalZero(t *testing.T) {
	assert.Equal(t, "一百零五", An2Cn("105"))
}

func TestAn2CnTenThousand(t *testing.T) {
	assert.Equal(t, "一万", An2Cn("10000"))
}

func TestAn2CnNegative(t *testing.T) {
	assert.Equal(t, "负五", An2Cn("-5"))
}

func TestAn2CnZeroSectionAcrossTenThousandBoundary(t *testing.T) {
	assert.Equal(t, "一万零一", An2Cn("10001"))
}
