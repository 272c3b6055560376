// Command tagtext runs the text-classification experiment pipeline:
// POS annotation and vocabulary building, training with
// checkpoint-on-improvement, and prediction from the best checkpoint.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/YuminosukeSato/tagtext/models"
	"github.com/YuminosukeSato/tagtext/pkg/log"
	"github.com/YuminosukeSato/tagtext/tokenize"
	"github.com/YuminosukeSato/tagtext/train"
)

func main() {
	app := &cli.App{
		Name:  "tagtext",
		Usage: "text classification with POS-tag fusion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log_level",
				Value: "info",
				Usage: "debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			log.SetLevel(log.ToLevel(c.String("log_level")))
			return nil
		},
		Commands: []*cli.Command{
			annotateCommand(),
			trainCommand(),
			predictCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tagtext: %v\n", err)
		os.Exit(1)
	}
}

func dataDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "data_dir",
		Usage:    "directory with {train,dev,test}_data.csv",
		Required: true,
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		dataDirFlag(),
		&cli.IntFlag{Name: "batch_size", Value: 768},
		&cli.Float64Flag{Name: "lr", Value: 2e-4},
		&cli.IntFlag{Name: "epochs", Value: 20},
		&cli.StringFlag{Name: "save_path", Value: "./out_models/"},
		&cli.StringFlag{Name: "log_dir", Value: "./log"},
		&cli.StringFlag{
			Name:  "model_name",
			Value: models.NameCNN,
			Usage: fmt.Sprintf("%s, %s or %s", models.NameBert, models.NameCNN, models.NameLSTM),
		},
		&cli.IntFlag{Name: "max_len", Value: tokenize.DefaultMaxLen},
		&cli.Int64Flag{Name: "seed", Value: 2020},
	}
}

func configFromFlags(c *cli.Context) train.Config {
	cfg := train.DefaultConfig()
	cfg.DataDir = c.String("data_dir")
	cfg.BatchSize = c.Int("batch_size")
	cfg.LR = c.Float64("lr")
	cfg.Epochs = c.Int("epochs")
	cfg.SavePath = c.String("save_path")
	cfg.LogDir = c.String("log_dir")
	cfg.ModelName = c.String("model_name")
	cfg.MaxLen = c.Int("max_len")
	cfg.Seed = c.Int64("seed")
	cfg.ShowProgress = true
	return cfg
}

func annotateCommand() *cli.Command {
	return &cli.Command{
		Name:  "annotate",
		Usage: "tag all splits and write the vocabularies",
		Flags: []cli.Flag{dataDirFlag()},
		Action: func(c *cli.Context) error {
			return train.Annotate(c.String("data_dir"), log.GetLoggerWithName("annotate"))
		},
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "train a classifier, then predict on the test split",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			cfg := configFromFlags(c)
			logger := log.GetLoggerWithName("train")

			trainer, err := train.NewTrainer(cfg, logger)
			if err != nil {
				return err
			}
			best, err := trainer.Run()
			if err != nil {
				return err
			}
			logger.Info("training finished",
				log.F1Key, best.F1,
				log.AccuracyKey, best.Acc,
			)

			report, err := train.Predict(cfg, logger)
			if err != nil {
				return err
			}
			fmt.Println(report)
			return nil
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "evaluate the best checkpoint on the test split",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			report, err := train.Predict(configFromFlags(c), log.GetLoggerWithName("predict"))
			if err != nil {
				return err
			}
			fmt.Println(report)
			return nil
		},
	}
}
