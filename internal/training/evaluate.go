package training

import (
	"fmt"
	"io"

	"disaster-response-go/internal/model"
	"disaster-response-go/pkg/metrics"
)

const reportSeparator = "--------------------------------------------------------"

// Predictor 是评估所需的最小接口。
type Predictor interface {
	Predict(rows []model.FeatureRow) ([][]uint8, error)
}

// Evaluate 在测试集上预测，并按类别输出分类报告。
func Evaluate(p Predictor, categories []string, rows []model.FeatureRow, labels [][]uint8, out io.Writer) ([]metrics.Report, error) {
	pred, err := p.Predict(rows)
	if err != nil {
		return nil, fmt.Errorf("predict test split: %w", err)
	}

	reports := make([]metrics.Report, len(categories))
	yTrue := make([]uint8, len(rows))
	yPred := make([]uint8, len(rows))
	for c, name := range categories {
		for i := range rows {
			yTrue[i] = labels[i][c]
			yPred[i] = pred[i][c]
		}
		reports[c] = metrics.Classification(name, yTrue, yPred)
		fmt.Fprint(out, reports[c].String())
		fmt.Fprintf(out, "%s\n\n", reportSeparator)
	}
	return reports, nil
}
