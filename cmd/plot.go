package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/samuelfneumann/gorl/experiment/tracker"
)

var (
	dataFiles []string
	plotFile  string
	plotTitle string
)

// PlotCommand returns the command which plots learning curves from
// saved experiment data
func PlotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot learning curves from saved experiment data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotData()
		},
	}

	cmd.Flags().StringSliceVarP(&dataFiles, "data", "d",
		[]string{"results/returns.bin"},
		"Data files to plot, one learning curve per file")
	cmd.Flags().StringVarP(&plotFile, "out", "o", "curve.png",
		"File to save the plot in")
	cmd.Flags().StringVarP(&plotTitle, "title", "t", "Learning Curve",
		"Title of the plot")

	return cmd
}

func plotData() error {
	p := plot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	for i, filename := range dataFiles {
		data, err := tracker.LoadData(filename)
		if err != nil {
			return fmt.Errorf("could not load data file %v: %v", filename,
				err)
		}

		points := make(plotter.XYs, len(data))
		for j, v := range data {
			points[j] = plotter.XY{X: float64(j), Y: v}
		}

		line, err := plotter.NewLine(points)
		if err != nil {
			return fmt.Errorf("could not plot data file %v: %v", filename,
				err)
		}
		line.Color = plotutil.Color(i)

		p.Add(line)
		name := strings.TrimSuffix(filepath.Base(filename),
			filepath.Ext(filename))
		p.Legend.Add(name, line)
	}

	return p.Save(8*vg.Inch, 8*vg.Inch, plotFile)
}
