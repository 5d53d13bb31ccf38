package testutil

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/colscan/internal/column"
)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("")
	assert.Equal(t, "run-0001", gen.Generate())
	assert.Equal(t, "run-0002", gen.Generate())
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("x")
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_, dup := seen.LoadOrStore(gen.Generate(), true)
				assert.False(t, dup)
			}
		}()
	}
	wg.Wait()
}

func TestStepClock(t *testing.T) {
	c := NewStepClock()
	first := c.Now()
	second := c.Now()
	assert.Equal(t, time.Second, second.Sub(first))

	c.Reset()
	assert.Equal(t, first, c.Now())
}

func TestWriteDataset(t *testing.T) {
	dir := WriteDataset(t, ResaleSample())

	data, err := os.ReadFile(dir.Path(column.Town))
	require.NoError(t, err)
	assert.Equal(t, "BEDOK\nBEDOK\nCLEMENTI\nBEDOK\nBEDOK\nBEDOK\n", string(data))
}

func TestDatasetRows_Misaligned(t *testing.T) {
	d := ResaleSample()
	d.Price = d.Price[:5]
	_, err := d.Rows()
	assert.Error(t, err)

	_, err = d.Write(t.TempDir())
	assert.Error(t, err)
}
