package classify

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Report summarizes a fitted estimator on its training and test sets.
// Precision, Recall and F1 are macro averages over the test set.
type Report struct {
	TrainAccuracy float64 `json:"trainAccuracy"`
	TestAccuracy  float64 `json:"testAccuracy"`
	Precision     float64 `json:"precision"`
	Recall        float64 `json:"recall"`
	F1            float64 `json:"f1"`
}

func Accuracy(truth, predicted []float64) float64 {
	if len(truth) == 0 {
		return 0
	}

	correct := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(truth))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// MacroScores returns precision, recall and F1 averaged over every label
// present in truth or predicted. Undefined ratios count as 0.
func MacroScores(truth, predicted []float64) (precision, recall, f1 float64) {
	seen := make(map[float64]bool)
	for i := range truth {
		seen[truth[i]] = true
		seen[predicted[i]] = true
	}
	if len(seen) == 0 {
		return 0, 0, 0
	}

	labels := make([]float64, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	ps := make([]float64, len(labels))
	rs := make([]float64, len(labels))
	fs := make([]float64, len(labels))
	for i, label := range labels {
		var tp, fp, fn int
		for j := range truth {
			switch {
			case predicted[j] == label && truth[j] == label:
				tp++
			case predicted[j] == label:
				fp++
			case truth[j] == label:
				fn++
			}
		}

		ps[i] = ratio(tp, tp+fp)
		rs[i] = ratio(tp, tp+fn)
		if ps[i]+rs[i] > 0 {
			fs[i] = 2 * ps[i] * rs[i] / (ps[i] + rs[i])
		}
	}

	return stat.Mean(ps, nil), stat.Mean(rs, nil), stat.Mean(fs, nil)
}

// Evaluate scores est, already fitted on train, against both sets.
func Evaluate(est Estimator, train, test Dataset) Report {
	predicted := est.Predict(test.X)

	report := Report{
		TrainAccuracy: Accuracy(train.Y, est.Predict(train.X)),
		TestAccuracy:  Accuracy(test.Y, predicted),
	}
	report.Precision, report.Recall, report.F1 = MacroScores(test.Y, predicted)

	return report
}
