package likelihood

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/sim/chain"
	"github.com/chainsim/chainsim/sim/internal/testutil"
	"github.com/chainsim/chainsim/sim/offspring"
)

func poisSpec(lambda float64) offspring.Spec {
	return offspring.Spec{Family: offspring.FamilyPoisson, Params: offspring.Params{"lambda": lambda}}
}

func ll(t *testing.T, obs []int, spec offspring.Spec, stat chain.Stat, opts Options) float64 {
	t.Helper()
	v, err := ChainLogLik(context.Background(), obs, spec, stat, opts)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestChainLogLik_BorelTannerHandValues(t *testing.T) {
	// P(X=1) = exp(-lambda), P(X=2) = exp(-2 lambda) lambda
	got := ll(t, []int{1}, poisSpec(0.5), chain.StatSize, Options{})
	testutil.AssertFloat64Equal(t, "log P(X=1)", -0.5, got, 1e-12)

	got = ll(t, []int{2}, poisSpec(0.5), chain.StatSize, Options{})
	testutil.AssertFloat64Equal(t, "log P(X=2)", math.Log(0.5)-1, got, 1e-12)

	got = ll(t, []int{1, 2}, poisSpec(0.5), chain.StatSize, Options{})
	testutil.AssertFloat64Equal(t, "summed over observations", math.Log(0.5)-1.5, got, 1e-12)
}

func TestChainLogLik_GeomLengthHandValues(t *testing.T) {
	// critical case prob=0.5: P(L <= n) = n/(n+1)
	spec := offspring.Spec{Family: offspring.FamilyGeometric, Params: offspring.Params{"prob": 0.5}}
	testutil.AssertFloat64Equal(t, "log P(L=1)", math.Log(0.5),
		ll(t, []int{1}, spec, chain.StatLength, Options{}), 1e-12)
	testutil.AssertFloat64Equal(t, "log P(L=2)", math.Log(1.0/6.0),
		ll(t, []int{2}, spec, chain.StatLength, Options{}), 1e-12)

	// P(L=1) = P(no offspring) = prob
	spec.Params["prob"] = 0.6
	testutil.AssertFloat64Equal(t, "log P(L=1) subcritical", math.Log(0.6),
		ll(t, []int{1}, spec, chain.StatLength, Options{}), 1e-9)
}

func TestChainLogLik_PoissonLengthHandValue(t *testing.T) {
	// F(1)=exp(-0.5), F(2)=exp(0.5(F(1)-1)): P(L=2) = F(2)-F(1)
	f1 := math.Exp(-0.5)
	f2 := math.Exp(0.5 * (f1 - 1))
	got := ll(t, []int{2}, poisSpec(0.5), chain.StatLength, Options{})
	testutil.AssertFloat64Equal(t, "log P(L=2)", math.Log(f2-f1), got, 1e-12)
}

func TestChainLogLik_GammaBorelHandValue(t *testing.T) {
	// P(X=1) = E[exp(-lambda)] = (beta/(beta+1))^size, the gamma mgf at -1
	spec := offspring.Spec{
		Family: offspring.FamilyGammaBorel,
		Params: offspring.Params{"mean": 0.5, "dispersion": 0.3, "censor_at": 1000},
	}
	got := ll(t, []int{1}, spec, chain.StatSize, Options{})
	testutil.AssertFloat64Equal(t, "log P(X=1)", 0.3*math.Log(0.6/1.6), got, 1e-9)
}

func TestClosedForm_SubcriticalLawsNormalize(t *testing.T) {
	cases := []struct {
		name string
		spec offspring.Spec
		stat chain.Stat
	}{
		{"pois size", poisSpec(0.5), chain.StatSize},
		{"pois length", poisSpec(0.5), chain.StatLength},
		{
			"nbinom size",
			offspring.Spec{Family: offspring.FamilyNegBinom, Params: offspring.Params{"mean": 0.5, "dispersion": 0.58}},
			chain.StatSize,
		},
		{
			"geom length",
			offspring.Spec{Family: offspring.FamilyGeometric, Params: offspring.Params{"prob": 0.6}},
			chain.StatLength,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logPMF, ok := closedForm(tc.spec, tc.stat)
			if !ok {
				t.Fatalf("no closed form for %s/%s", tc.spec.Family, tc.stat)
			}
			total := 0.0
			for x := 1; x <= 1000; x++ {
				total += math.Exp(logPMF(x))
			}
			testutil.AssertFloat64Equal(t, "total mass", 1.0, total, 1e-6)
		})
	}
}

func TestClosedForm_SupercriticalSizeLawIsDefective(t *testing.T) {
	// above the critical mean the finite sizes only carry the extinction
	// probability q = exp(lambda(q-1)); for lambda=2 that is about 0.20319
	logPMF, ok := closedForm(poisSpec(2.0), chain.StatSize)
	if !ok {
		t.Fatal("no closed form for pois/size")
	}
	total := 0.0
	for x := 1; x <= 500; x++ {
		total += math.Exp(logPMF(x))
	}
	testutil.AssertFloat64Equal(t, "defective total mass", 0.20319, total, 1e-3)
}

func TestChainLogLik_CensoredMassAccounting(t *testing.T) {
	// body point masses plus the censored tail must cover the whole law
	spec := poisSpec(0.9)
	const cutoff = 10

	total := math.Exp(ll(t, []int{cutoff}, spec, chain.StatSize, Options{Cutoff: cutoff}))
	for k := 1; k < cutoff; k++ {
		total += math.Exp(ll(t, []int{k}, spec, chain.StatSize, Options{}))
	}
	testutil.AssertFloat64Equal(t, "body plus tail", 1.0, total, 1e-9)
}

func TestChainLogLik_CensoringClampsAndLeavesBodyAlone(t *testing.T) {
	spec := poisSpec(0.9)
	opts := Options{Cutoff: 10}

	beyond := ll(t, []int{17}, spec, chain.StatSize, opts)
	at := ll(t, []int{10}, spec, chain.StatSize, opts)
	if beyond != at {
		t.Fatalf("observation past the cutoff scored %v, want clamped to %v", beyond, at)
	}

	body := ll(t, []int{3}, spec, chain.StatSize, opts)
	free := ll(t, []int{3}, spec, chain.StatSize, Options{})
	if body != free {
		t.Fatalf("cutoff changed an uncensored observation: %v != %v", body, free)
	}
}

func TestChainLogLik_LengthCensoring(t *testing.T) {
	spec := poisSpec(0.9)
	const cutoff = 5

	total := math.Exp(ll(t, []int{cutoff}, spec, chain.StatLength, Options{Cutoff: cutoff}))
	for k := 1; k < cutoff; k++ {
		total += math.Exp(ll(t, []int{k}, spec, chain.StatLength, Options{}))
	}
	testutil.AssertFloat64Equal(t, "body plus tail", 1.0, total, 1e-9)
}

func TestMonteCarloEvaluator_TracksClosedForm(t *testing.T) {
	// empirical body probabilities against the Borel-Tanner law
	rng := rand.New(rand.NewSource(42))
	ev, err := monteCarloEvaluator(context.Background(), poisSpec(0.5), chain.StatSize, 30, 200000, rng)
	if err != nil {
		t.Fatal(err)
	}
	logPMF, _ := closedForm(poisSpec(0.5), chain.StatSize)
	for _, x := range []int{1, 2, 3, 5} {
		want := math.Exp(logPMF(x))
		got := math.Exp(ev.logProb(x))
		testutil.AssertFloat64Equal(t, "P(X=x)", want, got, 0.08)
	}
}

func TestMonteCarloEvaluator_TailMatchesClosedForm(t *testing.T) {
	// supercritical law: most chains hit the cutoff, so the truncated share
	// estimates the censored tail
	rng := rand.New(rand.NewSource(42))
	ev, err := monteCarloEvaluator(context.Background(), poisSpec(2.0), chain.StatSize, 30, 50000, rng)
	if err != nil {
		t.Fatal(err)
	}
	logPMF, _ := closedForm(poisSpec(2.0), chain.StatSize)
	ref := closedFormEvaluator(logPMF, 30, true)
	testutil.AssertFloat64Equal(t, "P(X>=cutoff)",
		math.Exp(ref.tailLog), math.Exp(ev.tailLog), 0.05)
}

func TestChainLogLik_MonteCarloFallback(t *testing.T) {
	// geometric offspring has no closed size law
	spec := offspring.Spec{Family: offspring.FamilyGeometric, Params: offspring.Params{"prob": 0.5}}

	_, err := ChainLogLik(context.Background(), []int{1, 2}, spec, chain.StatSize, Options{})
	var unsupported *chain.UnsupportedStatisticError
	require.ErrorAs(t, err, &unsupported)

	opts := Options{
		Rand:       rand.New(rand.NewSource(7)),
		MonteCarlo: &MonteCarloOptions{Sims: 5000},
	}
	got, err := ChainLogLik(context.Background(), []int{1, 2}, spec, chain.StatSize, opts)
	require.NoError(t, err)
	require.False(t, math.IsInf(got, 0), "expected finite log-likelihood, got %v", got)

	// P(X=1) = 0.5 and P(X=2) = 0.125 exactly; 5000 sims pin them well
	testutil.AssertFloat64Equal(t, "empirical log-likelihood",
		math.Log(0.5)+math.Log(0.125), got, 0.15)
}

func TestChainLogLik_MonteCarloIsSeedDeterministic(t *testing.T) {
	spec := offspring.Spec{Family: offspring.FamilyGeometric, Params: offspring.Params{"prob": 0.5}}
	run := func() float64 {
		opts := Options{
			Rand:       rand.New(rand.NewSource(11)),
			MonteCarlo: &MonteCarloOptions{Sims: 2000},
		}
		return ll(t, []int{1, 3, 2}, spec, chain.StatSize, opts)
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same seed gave %v then %v", a, b)
	}
}

func TestReplicateLogLiks_PartialObservation(t *testing.T) {
	spec := poisSpec(0.5)
	opts := Options{
		ObsProb:     0.4,
		NObsSamples: 7,
		Rand:        rand.New(rand.NewSource(3)),
	}
	lls, err := ReplicateLogLiks(context.Background(), []int{5, 3}, spec, chain.StatSize, opts)
	require.NoError(t, err)
	require.Len(t, lls, 7)
	for i, v := range lls {
		require.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "replicate %d: %v", i, v)
	}

	opts.Rand = rand.New(rand.NewSource(3))
	again, err := ReplicateLogLiks(context.Background(), []int{5, 3}, spec, chain.StatSize, opts)
	require.NoError(t, err)
	require.True(t, reflect.DeepEqual(lls, again), "same seed must reproduce replicates")

	opts.Rand = rand.New(rand.NewSource(3))
	mean, err := ChainLogLik(context.Background(), []int{5, 3}, spec, chain.StatSize, opts)
	require.NoError(t, err)
	sum := 0.0
	for _, v := range lls {
		sum += v
	}
	testutil.AssertFloat64Equal(t, "mean of replicates", sum/7, mean, 1e-12)
}

func TestReplicateLogLiks_FullyObservedIsSingleReplicate(t *testing.T) {
	lls, err := ReplicateLogLiks(context.Background(), []int{1, 2}, poisSpec(0.5), chain.StatSize, Options{})
	require.NoError(t, err)
	require.Len(t, lls, 1)
}

func TestChainLogLik_Errors(t *testing.T) {
	ctx := context.Background()
	goodSpec := poisSpec(0.5)
	rng := rand.New(rand.NewSource(1))

	var argErr *chain.InvalidArgumentError
	var paramErr *chain.InvalidParameterError
	var statErr *chain.UnsupportedStatisticError

	cases := []struct {
		name   string
		obs    []int
		spec   offspring.Spec
		stat   chain.Stat
		opts   Options
		target any
	}{
		{"no observations", nil, goodSpec, chain.StatSize, Options{}, &argErr},
		{"zero observation", []int{3, 0}, goodSpec, chain.StatSize, Options{}, &argErr},
		{"stat both", []int{1}, goodSpec, chain.StatBoth, Options{}, &statErr},
		{"bad params", []int{1}, poisSpec(-1), chain.StatSize, Options{}, &paramErr},
		{"negative cutoff", []int{1}, goodSpec, chain.StatSize, Options{Cutoff: -1}, &argErr},
		{"obs prob above one", []int{1}, goodSpec, chain.StatSize, Options{ObsProb: 1.5, NObsSamples: 1, Rand: rng}, &argErr},
		{"partial obs without replicates", []int{1}, goodSpec, chain.StatSize, Options{ObsProb: 0.5, Rand: rng}, &argErr},
		{"partial obs without rand", []int{1}, goodSpec, chain.StatSize, Options{ObsProb: 0.5, NObsSamples: 2}, &argErr},
		{"partial obs on lengths", []int{1}, goodSpec, chain.StatLength, Options{ObsProb: 0.5, NObsSamples: 2, Rand: rng}, &statErr},
		{"monte carlo without rand", []int{1},
			offspring.Spec{Family: offspring.FamilyGeometric, Params: offspring.Params{"prob": 0.5}},
			chain.StatSize, Options{MonteCarlo: &MonteCarloOptions{Sims: 100}}, &argErr},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ChainLogLik(ctx, tc.obs, tc.spec, tc.stat, tc.opts)
			require.Error(t, err)
			require.Truef(t, errors.As(err, tc.target), "got %T: %v", err, err)
		})
	}

	_, err := ChainLogLik(ctx, []int{1}, offspring.Spec{Family: "nope"}, chain.StatSize, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown offspring family")
}

func TestLogComplement(t *testing.T) {
	testutil.AssertFloat64Equal(t, "log(1-0.3)", math.Log(0.7), logComplement(math.Log(0.3)), 1e-12)
	if got := logComplement(0.0); !math.IsInf(got, -1) {
		t.Fatalf("mass one should leave no tail, got %v", got)
	}
	if got := logComplement(1e-9); !math.IsInf(got, -1) {
		t.Fatalf("rounding overshoot should leave no tail, got %v", got)
	}
}
