package cli

import (
	"fmt"
	"strconv"

	urfave "github.com/urfave/cli/v2"

	"comfortcast/ml"
)

var predictCmd = &urfave.Command{
	Name:      "predict",
	Usage:     "Print the probability of the positive comfort class",
	ArgsUsage: argsUsage(),
	Description: "Loads <models-dir>/model_<id>.json and evaluates it on one feature row. " +
		"Times at or after 12 map to bucket 2, earlier times to bucket 1. " +
		"Use -- before the arguments when the first one is negative.",
	Action:       runPredict,
	OnUsageError: usageError,
}

type prediction struct {
	ID          string  `json:"id" yaml:"id"`
	Probability float64 `json:"probability" yaml:"probability"`
	TimeBucket  int     `json:"time_bucket" yaml:"time_bucket"`
}

func runPredict(c *urfave.Context) error {
	app := getConfig(c)

	in, err := ml.ParseInput(c.Args().Slice())
	if err != nil {
		return err
	}

	predictor := ml.NewPredictor(app.Config.Models.Dir, ml.WithLogger(app.Logger))
	probability, err := predictor.PredictProbability(in)
	if err != nil {
		return err
	}

	format := c.String(outputFlag.Name)
	if format == formatText || format == "" {
		_, err := fmt.Fprintln(c.App.Writer, strconv.FormatFloat(probability, 'f', -1, 64))
		return err
	}
	return encode(c.App.Writer, format, prediction{
		ID:          in.ID,
		Probability: probability,
		TimeBucket:  ml.TimeBucket(in.Time),
	})
}
