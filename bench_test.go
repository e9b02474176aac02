package dotted

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/commands"
	"github.com/stretchr/testify/require"
)

func benchKey(n int) string {
	return "k" + strconv.Itoa(n%100) + ".k" + strconv.Itoa(n)
}

func benchmarkStdMapInsert(factor int, b *testing.B) {
	m := map[string]map[string]int{}
	for n := 0; n < factor*b.N; n++ {
		outer := "k" + strconv.Itoa(n%100)
		if m[outer] == nil {
			m[outer] = map[string]int{}
		}
		m[outer]["k"+strconv.Itoa(n)] = n
	}
}

func BenchmarkStdMapInsert1(b *testing.B)   { benchmarkStdMapInsert(1, b) }
func BenchmarkStdMapInsert10(b *testing.B)  { benchmarkStdMapInsert(10, b) }
func BenchmarkStdMapInsert100(b *testing.B) { benchmarkStdMapInsert(100, b) }
func BenchmarkStdMapInsert1k(b *testing.B)  { benchmarkStdMapInsert(1_000, b) }

func benchmarkTreeSet(factor int, b *testing.B) {
	t := New()
	for n := 0; n < factor*b.N; n++ {
		_ = t.Set(benchKey(n), n)
	}
}

func BenchmarkTreeSet1(b *testing.B)   { benchmarkTreeSet(1, b) }
func BenchmarkTreeSet10(b *testing.B)  { benchmarkTreeSet(10, b) }
func BenchmarkTreeSet100(b *testing.B) { benchmarkTreeSet(100, b) }
func BenchmarkTreeSet1k(b *testing.B)  { benchmarkTreeSet(1_000, b) }

func benchmarkTreeGet(factor int, b *testing.B) {
	t := New()
	b.StopTimer()
	for n := 0; n < factor*b.N; n++ {
		_ = t.Set(benchKey(n), n)
	}
	b.StartTimer()
	for n := 0; n < factor*b.N; n++ {
		_, _ = t.Get(benchKey(n), nil)
	}
}

func BenchmarkTreeGet1(b *testing.B)   { benchmarkTreeGet(1, b) }
func BenchmarkTreeGet10(b *testing.B)  { benchmarkTreeGet(10, b) }
func BenchmarkTreeGet100(b *testing.B) { benchmarkTreeGet(100, b) }
func BenchmarkTreeGet1k(b *testing.B)  { benchmarkTreeGet(1_000, b) }

func benchmarkStoreSave(entries int, b *testing.B) {
	ctx := context.Background()
	s, err := Open(ctx, NewInMemoryStore(), "bench.json", WithAccelerator(NewSnapshotCache(4)))
	require.NoError(b, err)
	for n := 0; n < entries; n++ {
		require.NoError(b, s.Set(benchKey(n), n))
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		require.NoError(b, s.Set("counter", n))
		_, err := s.Save(ctx)
		require.NoError(b, err)
	}
}

func BenchmarkStoreSave10(b *testing.B)   { benchmarkStoreSave(10, b) }
func BenchmarkStoreSave1k(b *testing.B)   { benchmarkStoreSave(1_000, b) }
func BenchmarkStoreSave100k(b *testing.B) { benchmarkStoreSave(100_000, b) }

func BenchmarkExerciser(b *testing.B) {
	parameters := gopter.DefaultTestParametersWithSeed(1593228262585360000)
	parameters.MaxSize = 512
	parameters.MinSuccessfulTests = b.N
	properties := gopter.NewProperties(parameters)
	properties.Property("tree exerciser", commands.Prop(treeCommands))
	out := bytes.NewBuffer(nil)
	reporter := gopter.NewFormatedReporter(false, 98, out)
	require.True(b, properties.Run(reporter))
}
