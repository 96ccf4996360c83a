package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTitleToFilename(t *testing.T) {
	cases := []struct {
		title  string
		format string
		want   string
	}{
		{"Revenue: Q1, 2024!", "webp", "Revenue_Q1_2024_.webp"},
		{"Total Revenue by Product Category", "png", "Total_Revenue_by_Product_Category.png"},
		{"Average Delivery Time per Order", "svg", "Average_Delivery_Time_per_Order.svg"},
		{"Customer Count by State", "png", "Customer_Count_by_State.png"},
		{"plain", "png", "plain.png"},
		{"", "png", ".png"},
		{"what?!", "png", "what_.png"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, TitleToFilename(tc.title, tc.format), "title %q", tc.title)
	}
}

func TestSaveBarChartWritesFile(t *testing.T) {
	dir := t.TempDir()
	r := &Renderer{
		dir:    dir,
		format: "png",
		width:  640,
		height: 480,
		logger: zap.NewNop(),
	}

	bars := []Bar{
		{Label: "Electronics", Value: 1200},
		{Label: "Furniture", Value: 430},
	}

	path, err := r.SaveBarChart("Total Revenue by Product Category", bars)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Total_Revenue_by_Product_Category.png"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveBarChartRejectsEmptyData(t *testing.T) {
	r := &Renderer{dir: t.TempDir(), format: "png", width: 640, height: 480, logger: zap.NewNop()}

	_, err := r.SaveBarChart("Empty", nil)
	assert.Error(t, err)
}
