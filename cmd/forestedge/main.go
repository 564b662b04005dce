package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	fe "github.com/wgdzlh/forestedge"
	"github.com/wgdzlh/forestedge/grid"
	"github.com/wgdzlh/forestedge/log"
	"github.com/wgdzlh/forestedge/utils"

	"go.uber.org/zap"
)

type command struct {
	usage string
	run   func(ctx context.Context, g *fe.Toolbox, args []string) error
}

var commands = map[string]command{
	"info":      {"info <tif>", runInfo},
	"mask":      {"mask [-threshold t|-values v1,v2|-range a,b|-expr e] [-nodata-as 0|1] <in> <out>", runMask},
	"edge":      {"edge [-min-neighbors n] <mask> <out>", runEdge},
	"border":    {"border <mask> <out>", runBorder},
	"distance":  {"distance [-encoding float32|logbyte] <mask> <out>", runDistance},
	"aggregate": {"aggregate -res r [-mode sum|max|min|mean] [-dtype t] <in> <out>", runAggregate},
	"smooth":    {"smooth [-kernel uniform|distance|gaussian] [-size n] [-sigma s] [-multiplier k] <in> <out>", runSmooth},
	"landmask":  {"landmask -ref-dir dir [-ref-suffix s] [-land v1,v2] <in> <out>", runLandMask},
	"resample":  {"resample -res r <in> <out>", runResample},
	"clip":      {"clip <primary> <fallback> <out>", runClip},
	"pad":       {"pad <src> <ref> <out>", runPad},
	"subtract":  {"subtract [-loss-min y] [-multiplier k] [-res r] [-dtype t] <forest> <loss> <out>", runSubtract},
	"mosaic":    {"mosaic -o <out> <in>...", runMosaic},
	"pipeline":  {"pipeline -config <yml> [-input dir] [-output dir] [-workers n]", runPipeline},
	"download":  {"download -lats 30:-50:-10 -lons -180:170:10 [-out dir] [-workers n] [-base url] [-prefix p]", runDownload},
	"checklist": {"checklist <dirA> <dirB>", runChecklist},
	"index":     {"index -o <shp> <tif>...", runIndex},
	"coverage":  {"coverage -aoi <wkt> <tif>...", runCoverage},
	"preview":   {"preview [-max n] [-band n] <tif> <png>", runPreview},
}

func usage() {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: forestedge [-level debug|info|warn|error] <command> [flags] args...")
	for _, n := range names {
		fmt.Fprintln(os.Stderr, "  "+commands[n].usage)
	}
}

func main() {
	level := flag.String("level", "info", "log level")
	tmpDir := flag.String("tmp", os.TempDir(), "temp dir")
	flag.Usage = usage
	flag.Parse()
	if err := log.SetLevel(*level); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.run(ctx, fe.NewToolbox(*tmpDir), flag.Args()[1:])
	stop()
	if err != nil {
		log.Error("command failed", zap.String("cmd", flag.Arg(0)), zap.Error(err))
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// 解析子命令参数并检查位置参数个数，n<0表示至少-n个
func parse(fs *flag.FlagSet, args []string, n int) (pos []string, err error) {
	if err = fs.Parse(args); err != nil {
		return
	}
	pos = fs.Args()
	if (n >= 0 && len(pos) != n) || (n < 0 && len(pos) < -n) {
		err = fmt.Errorf("wrong number of arguments: %d", len(pos))
	}
	return
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runInfo(_ context.Context, g *fe.Toolbox, args []string) error {
	pos, err := parse(flag.NewFlagSet("info", flag.ExitOnError), args, 1)
	if err != nil {
		return err
	}
	info, err := g.Info(pos[0])
	if err != nil {
		return err
	}
	return printJSON(info)
}

func maskPredicate(threshold float64, values, rng, expr string) (p grid.Predicate, err error) {
	switch {
	case expr != "":
		return grid.NewExpression(expr)
	case values != "":
		var vs []float64
		if vs, err = utils.StrToFloats(values, ","); err != nil {
			return
		}
		return grid.NewValueSet(vs...), nil
	case rng != "":
		var vs []float64
		if vs, err = utils.StrToFloats(rng, ","); err != nil {
			return
		}
		if len(vs) != 2 {
			return nil, fmt.Errorf("range needs min,max")
		}
		return grid.Range{Min: vs[0], Max: vs[1]}, nil
	}
	return grid.Threshold{Min: threshold}, nil
}

func runMask(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("mask", flag.ExitOnError)
	threshold := fs.Float64("threshold", 1, "forest if value >= threshold")
	values := fs.String("values", "", "comma separated forest values")
	rng := fs.String("range", "", "inclusive min,max")
	expr := fs.String("expr", "", "boolean expression over value")
	nodataAs := fs.Uint("nodata-as", 0, "mask value for nodata pixels")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	p, err := maskPredicate(*threshold, *values, *rng, *expr)
	if err != nil {
		return err
	}
	// 仅支持单波段输入
	r, err := g.ReadRaster(pos[0])
	if err != nil {
		return err
	}
	m, err := grid.BuildMask(r, p, grid.WithNoDataAs(uint8(*nodataAs)))
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], m.Raster())
}

func readMask(g *fe.Toolbox, path string) (*grid.Mask, error) {
	r, err := g.ReadRaster(path)
	if err != nil {
		return nil, err
	}
	return grid.BuildMask(r, grid.Threshold{Min: 1})
}

func runEdge(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("edge", flag.ExitOnError)
	minN := fs.Int("min-neighbors", grid.DefaultMinBackgroundNeighbors, "min background 4-neighbours")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	m, err := readMask(g, pos[0])
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], grid.DetectEdges(m, grid.WithMinBackgroundNeighbors(*minN)).Raster())
}

func runBorder(_ context.Context, g *fe.Toolbox, args []string) error {
	pos, err := parse(flag.NewFlagSet("border", flag.ExitOnError), args, 2)
	if err != nil {
		return err
	}
	m, err := readMask(g, pos[0])
	if err != nil {
		return err
	}
	grid.ZeroBorder(m)
	return g.WriteRaster(pos[1], m.Raster())
}

func runDistance(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("distance", flag.ExitOnError)
	encoding := fs.String("encoding", string(grid.EncodingFloat32), "float32 or logbyte")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	enc, err := grid.ParseEncoding(*encoding)
	if err != nil {
		return err
	}
	m, err := readMask(g, pos[0])
	if err != nil {
		return err
	}
	if !m.Georef.Transform.IsIsotropic() {
		log.Warn("pixels not square, distance measured in pixel units")
	}
	r, err := grid.EncodeField(grid.DistanceTransform(m), enc)
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], r, fe.WriteOptions{Metadata: map[string]string{fe.MD_DISTANCE_ENCODING: string(enc)}})
}

func parseDataType(s string) (dt grid.DataType, err error) {
	if s == "" {
		return
	}
	return grid.ParseDataType(s)
}

func runAggregate(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("aggregate", flag.ExitOnError)
	mode := fs.String("mode", string(grid.ModeSum), "sum, max, min or mean")
	res := fs.Float64("res", 0, "target resolution")
	dtype := fs.String("dtype", "", "output data type")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	m, err := grid.ParseMode(*mode)
	if err != nil {
		return err
	}
	dt, err := parseDataType(*dtype)
	if err != nil {
		return err
	}
	r, err := g.ReadRaster(pos[0])
	if err != nil {
		return err
	}
	out, err := grid.AggregateToResolution(r, m, *res, *res)
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], out, fe.WriteOptions{DataType: dt, Metadata: map[string]string{fe.MD_AGGREGATION_MODE: string(m)}})
}

func runResample(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("resample", flag.ExitOnError)
	res := fs.Float64("res", 0, "target resolution")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	r, err := g.ReadRaster(pos[0])
	if err != nil {
		return err
	}
	out, err := grid.ResampleNearest(r, *res, *res)
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], out)
}

func runClip(_ context.Context, g *fe.Toolbox, args []string) error {
	pos, err := parse(flag.NewFlagSet("clip", flag.ExitOnError), args, 3)
	if err != nil {
		return err
	}
	outs, err := g.ClipMerge(pos[0], pos[1], pos[2])
	if err != nil {
		return err
	}
	return printJSON(outs)
}

func runPad(_ context.Context, g *fe.Toolbox, args []string) error {
	pos, err := parse(flag.NewFlagSet("pad", flag.ExitOnError), args, 3)
	if err != nil {
		return err
	}
	return g.PadToReference(pos[0], pos[1], pos[2])
}

func runSmooth(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("smooth", flag.ExitOnError)
	kernel := fs.String("kernel", string(grid.KernelUniform), "uniform, distance or gaussian")
	size := fs.Int("size", fe.DefaultSmoothSize, "odd window size in pixels")
	sigma := fs.Float64("sigma", 0, "gaussian sigma, 0 for radius/4")
	mul := fs.Float64("multiplier", 1, "multiply before smoothing")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	k, err := grid.ParseKernel(*kernel)
	if err != nil {
		return err
	}
	r, err := g.ReadRaster(pos[0])
	if err != nil {
		return err
	}
	if *mul != 1 {
		r = grid.Multiply(r, *mul)
	}
	out, err := grid.Smooth(r, k, *size, grid.WithSigma(*sigma))
	if err != nil {
		return err
	}
	return g.WriteRaster(pos[1], out, fe.WriteOptions{Metadata: map[string]string{fe.MD_SMOOTH_KERNEL: string(k)}})
}

func runLandMask(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("landmask", flag.ExitOnError)
	refDir := fs.String("ref-dir", "", "reference tiles dir, searched recursively")
	refSuffix := fs.String("ref-suffix", fe.LAND_REF_SUFFIX, "reference file name suffix")
	land := fs.String("land", "", "comma separated land values, default 254")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	if *refDir == "" {
		return fmt.Errorf("-ref-dir is required")
	}
	opts := fe.LandMaskOptions{RefSuffix: *refSuffix}
	if *land != "" {
		if opts.Values, err = utils.StrToFloats(*land, ","); err != nil {
			return err
		}
	}
	return g.ApplyLandMask(pos[0], *refDir, pos[1], opts)
}

func runSubtract(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("subtract", flag.ExitOnError)
	lossMin := fs.Float64("loss-min", 1, "loss if value >= loss-min")
	mul := fs.Float64("multiplier", 1, "result multiplier")
	res := fs.Float64("res", 0, "mean aggregate to resolution")
	dtype := fs.String("dtype", "", "output data type")
	pos, err := parse(fs, args, 3)
	if err != nil {
		return err
	}
	dt, err := parseDataType(*dtype)
	if err != nil {
		return err
	}
	return g.SubtractLoss(pos[0], pos[1], pos[2], fe.SubtractOptions{
		Loss:       grid.Threshold{Min: *lossMin},
		Multiplier: *mul,
		Resolution: *res,
		DataType:   dt,
	})
}

func runMosaic(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("mosaic", flag.ExitOnError)
	out := fs.String("o", "", "output tif")
	pos, err := parse(fs, args, -1)
	if err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("missing -o")
	}
	return g.Mosaic(pos, *out)
}

func runPipeline(ctx context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	config := fs.String("config", "", "settings yaml")
	input := fs.String("input", "", "override input_dir")
	output := fs.String("output", "", "override output_dir")
	workers := fs.Int("workers", 0, "override workers")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	s, err := fe.LoadSettings(*config)
	if err != nil {
		return err
	}
	if *input != "" {
		s.InputDir = *input
	}
	if *output != "" {
		s.OutputDir = *output
	}
	if *workers > 0 {
		s.Workers = *workers
	}
	results, err := g.RunBatch(ctx, s)
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	fmt.Printf("%d tiles processed, %d failed\n", len(results), failed)
	return err
}

func runDownload(ctx context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	lats := fs.String("lats", "", "latitudes, from:to:step or comma list")
	lons := fs.String("lons", "", "longitudes, from:to:step or comma list")
	out := fs.String("out", ".", "output dir")
	workers := fs.Int("workers", 4, "parallel downloads")
	base := fs.String("base", fe.GFC_BASE_URL, "base url")
	prefix := fs.String("prefix", fe.GFC_PREFIX, "file name prefix")
	if _, err := parse(fs, args, 0); err != nil {
		return err
	}
	req := fe.DownloadRequest{BaseURL: *base, Prefix: *prefix, OutputDir: *out, Workers: *workers}
	var err error
	if req.Lats, err = utils.StrToIntRange(*lats); err != nil {
		return err
	}
	if req.Lons, err = utils.StrToIntRange(*lons); err != nil {
		return err
	}
	files, err := g.DownloadTiles(ctx, req)
	fmt.Printf("%d of %d tiles available\n", len(files), len(req.Lats)*len(req.Lons))
	return err
}

func runChecklist(_ context.Context, g *fe.Toolbox, args []string) error {
	pos, err := parse(flag.NewFlagSet("checklist", flag.ExitOnError), args, 2)
	if err != nil {
		return err
	}
	diff, err := g.CompareTileSets(pos[0], pos[1])
	if err != nil {
		return err
	}
	return printJSON(diff)
}

func runPreview(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	maxSize := fs.Int("max", fe.PREVIEW_MAX_SIZE, "max side length in pixels")
	band := fs.Int("band", 1, "band index")
	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	r, err := g.ReadRaster(pos[0], *band)
	if err != nil {
		return err
	}
	return g.WritePreview(r, pos[1], *maxSize)
}

func runIndex(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	out := fs.String("o", "", "output shp")
	pos, err := parse(fs, args, -1)
	if err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("missing -o")
	}
	n, err := g.WriteTileIndex(*out, pos)
	fmt.Printf("%d of %d tiles indexed\n", n, len(pos))
	return err
}

func runCoverage(_ context.Context, g *fe.Toolbox, args []string) error {
	fs := flag.NewFlagSet("coverage", flag.ExitOnError)
	aoi := fs.String("aoi", "", "area of interest, EPSG:4326 WKT")
	pos, err := parse(fs, args, -1)
	if err != nil {
		return err
	}
	ratio, err := g.CoverageRatio(*aoi, pos)
	if err != nil {
		return err
	}
	fmt.Printf("%.6f\n", ratio)
	return nil
}
