// Package hwe tests genotype counts for deviation from Hardy-Weinberg
// equilibrium. In an unrelated population a strongly deviating variant
// usually reflects a genotyping artifact rather than biology, so the P value
// serves as a per-variant quality signal for extracted dosage columns.
package hwe

import (
	"math"
	"math/big"

	"github.com/BenLubar/memoize"
	"github.com/tokenme/probab/dst"
)

var (
	memoizedConfig  = memoize.Memoize(configProbability)
	memoizedProduct = memoize.Memoize(rangeProduct)
)

// PValue tests one variant's genotype tallies: homCounted and homOther are
// the two homozygote counts, het the heterozygote count. The chi-square
// approximation answers first; when it falls below exactBelow, the exact
// test decides instead, since the approximation is least trustworthy exactly
// where the P value is small.
func PValue(homCounted, het, homOther int64, exactBelow float64) float64 {
	p := Approximate(float64(homCounted), float64(het), float64(homOther))
	if p < exactBelow {
		return Exact(homCounted, het, homOther)
	}

	return p
}

// Exact computes an exact Hardy-Weinberg equilibrium P-value, based on the
// Abecasis paper, itself based on RA Fisher's method. Exact is safe to call
// from concurrent goroutines. The resources used to create this were
// http://courses.washington.edu/b516/lectures_2009/HWE_Lecture.pdf slides 21-22
// and https://www.cog-genomics.org/software/stats for sanity checks.
func Exact(homCounted, het, homOther int64) float64 {
	// The test is symmetric in the homozygote classes; orient the rarer
	// class second.
	if homOther > homCounted {
		homCounted, homOther = homOther, homCounted
	}

	base := memoizedConfig.(func(int64, int64, int64) float64)(homCounted, het, homOther)

	// The P value is the probability of the observed configuration plus that
	// of every configuration at least as extreme with the same allele
	// counts. Trading one of each homozygote for two heterozygotes, or back,
	// enumerates all of them.
	sum := base

	for hc, h, ho := homCounted-1, het+2, homOther-1; ho >= 0; hc, h, ho = hc-1, h+2, ho-1 {
		p := memoizedConfig.(func(int64, int64, int64) float64)(hc, h, ho)
		if p > base {
			continue
		}
		if p <= math.SmallestNonzeroFloat64 {
			break
		}
		sum += p
	}

	for hc, h, ho := homCounted+1, het-2, homOther+1; h >= 0; hc, h, ho = hc+1, h-2, ho+1 {
		p := memoizedConfig.(func(int64, int64, int64) float64)(hc, h, ho)
		if p > base {
			continue
		}
		if p <= math.SmallestNonzeroFloat64 {
			break
		}
		sum += p
	}

	return sum
}

// configProbability is the probability of observing exactly het
// heterozygotes among homCounted+het+homOther samples carrying
// 2*homCounted+het copies of one allele and 2*homOther+het of the other.
func configProbability(homCounted, het, homOther int64) float64 {
	countedAlleles := homCounted*2 + het
	otherAlleles := homOther*2 + het
	n := homCounted + het + homOther

	product := func(a, b int64) *big.Int {
		return memoizedProduct.(func(int64, int64) *big.Int)(a, b)
	}

	// 2^het * countedAlleles! * otherAlleles!
	var num big.Int
	num.Exp(big.NewInt(2), big.NewInt(het), nil)
	num.Mul(&num, product(1, countedAlleles))
	num.Mul(&num, product(1, otherAlleles))

	// (2n)!/n! * homCounted! * het! * homOther!
	var denom big.Int
	denom.Set(product(n+1, 2*n))
	denom.Mul(&denom, product(1, homCounted))
	denom.Mul(&denom, product(1, het))
	denom.Mul(&denom, product(1, homOther))

	var ratNum, ratDenom big.Rat
	ratNum.SetInt(&num)
	ratDenom.SetInt(&denom)
	p, _ := new(big.Rat).Quo(&ratNum, &ratDenom).Float64()

	return p
}

func rangeProduct(a, b int64) *big.Int {
	return big.NewInt(1).MulRange(a, b)
}

// Approximate is the one-degree-of-freedom chi-square approximation of the
// equilibrium test. It degrades at low counts, where Exact should decide.
func Approximate(homCounted, het, homOther float64) (p float64) {
	// probab panics on pathological inputs rather than returning an error.
	defer func() { recover() }()

	p = 1.0 - dst.ChiSquareCDF(1)(chiSquare(homCounted, het, homOther))

	return p
}

// chiSquare measures the difference between the observed genotype counts and
// the counts expected if the observed alleles were distributed according to
// the Hardy-Weinberg rules.
func chiSquare(homCounted, het, homOther float64) float64 {
	countedAlleles := homCounted*2 + het
	otherAlleles := homOther*2 + het

	// A monomorphic site cannot deviate from equilibrium.
	if countedAlleles == 0 || otherAlleles == 0 {
		return 0.0
	}

	// Observed sample count may be smaller than the cohort when calls are
	// missing.
	n := homCounted + het + homOther
	alleleCount := countedAlleles + otherAlleles

	countedFreq := countedAlleles / alleleCount
	otherFreq := otherAlleles / alleleCount

	// Genotype counts expected under the null hypothesis, at the observed
	// allele frequencies.
	eHomCounted := countedFreq * countedFreq * n
	eHet := 2.0 * countedFreq * otherFreq * n
	eHomOther := otherFreq * otherFreq * n

	return math.Pow(eHomCounted-homCounted, 2)/eHomCounted +
		math.Pow(eHet-het, 2)/eHet +
		math.Pow(eHomOther-homOther, 2)/eHomOther
}
