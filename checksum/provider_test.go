package checksum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apack-io/apack/format"
)

func TestProvider_ComputeMatchesCalculator(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	for _, p := range []Provider{NewCRC32Provider(), NewXXH3Provider()} {
		t.Run(p.Name(), func(t *testing.T) {
			oneShot := p.Compute(data)

			calc := p.NewCalculator()
			calc.Update(data[:10])
			calc.Update(data[10:])
			require.Equal(t, oneShot, calc.Value())

			calc.Reset()
			calc.Update(data)
			require.Equal(t, oneShot, calc.Value())
		})
	}
}

func TestDefault_IsXXH3(t *testing.T) {
	require.Equal(t, format.ChecksumXXH3_64, Default().ID())
}

func TestNameHash_Deterministic(t *testing.T) {
	require.Equal(t, NameHash("hello.txt"), NameHash("hello.txt"))
	require.NotEqual(t, NameHash("hello.txt"), NameHash("world.txt"))
}

func TestRegistry_ByIDAndName(t *testing.T) {
	p, err := ByID(format.ChecksumCRC32)
	require.NoError(t, err)
	require.Equal(t, "crc32", p.Name())

	p, err = ByName("XXH3-64")
	require.NoError(t, err)
	require.Equal(t, format.ChecksumXXH3_64, p.ID())

	_, err = ByID(format.ChecksumAlgo(250))
	require.Error(t, err)
}
