package retrieval

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// #region tfidf
// tfidfSimilarity computes the TF-IDF cosine between a query and one
// document. The vectorizer is fit on just the pair, so raw values are only
// comparable within one request; the scorer min-max normalizes them across
// the candidate set afterwards.
func tfidfSimilarity(query, doc string) float64 {
	qTokens := tokenize(query)
	dTokens := tokenize(doc)
	if len(qTokens) == 0 || len(dTokens) == 0 {
		return 0
	}

	qCounts := termCounts(qTokens)
	dCounts := termCounts(dTokens)

	vocab := make(map[string]int)
	for t := range qCounts {
		if _, ok := vocab[t]; !ok {
			vocab[t] = len(vocab)
		}
	}
	for t := range dCounts {
		if _, ok := vocab[t]; !ok {
			vocab[t] = len(vocab)
		}
	}

	qVec := make([]float64, len(vocab))
	dVec := make([]float64, len(vocab))
	for t, i := range vocab {
		idf := smoothIDF(qCounts[t] > 0, dCounts[t] > 0)
		qVec[i] = float64(qCounts[t]) * idf
		dVec[i] = float64(dCounts[t]) * idf
	}

	qn := floats.Norm(qVec, 2)
	dn := floats.Norm(dVec, 2)
	if qn == 0 || dn == 0 {
		return 0
	}
	return floats.Dot(qVec, dVec) / (qn * dn)
}

// smoothIDF is ln((1+N)/(1+df))+1 over the two-document corpus, which keeps
// terms appearing in both documents from zeroing out.
func smoothIDF(inQuery, inDoc bool) float64 {
	df := 0
	if inQuery {
		df++
	}
	if inDoc {
		df++
	}
	return math.Log(3.0/float64(1+df)) + 1.0
}

func termCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

// #endregion tfidf
