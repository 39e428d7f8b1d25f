package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binzume/cocos2gltf/cocos"
	"github.com/binzume/cocos2gltf/converter"
	"github.com/binzume/cocos2gltf/gltfutil"
	"github.com/binzume/cocos2gltf/logger"
	"go.uber.org/zap"
)

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".glb"
}

// outputFile returns the output path. name replaces the base name of the
// path and keeps its directory and extension.
func outputFile(input, output, name string) string {
	if output == "" {
		output = defaultOutputFile(input)
	}
	if name == "" {
		return output
	}
	return filepath.Join(filepath.Dir(output), name+filepath.Ext(output))
}

func newLogger(level, file string) *zap.Logger {
	if file == "" {
		return logger.NewConsole(level)
	}
	return logger.New(logger.Config{Level: level, Console: os.Stderr, File: logger.DefaultFileConfig(file)})
}

func loadPrefab(path string, sjis bool) (*cocos.Prefab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return cocos.ParsePrefab(f, filepath.Dir(path), &cocos.ParseOption{ShiftJIS: sjis})
}

func loadClips(files string) ([]*cocos.AnimationClip, error) {
	var clips []*cocos.AnimationClip
	for _, f := range strings.Split(files, ",") {
		if f == "" {
			continue
		}
		c, err := cocos.LoadClips(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		clips = append(clips, c...)
	}
	return clips, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s prefab.yaml [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	output := flag.String("o", "", "output file (.glb or .gltf)")
	name := flag.String("n", "", "output file name without extension")
	anims := flag.String("anim", "", "clip description files (comma separated)")
	keepZero := flag.Bool("keepzero", false, "keep metallic/roughness factors of 0")
	noSniff := flag.Bool("nosniff", false, "do not check embedded image contents")
	dropEmpty := flag.Bool("dropempty", false, "drop animations without channels")
	embed := flag.Bool("embed", false, "embed buffer in .gltf as data URI")
	scale := flag.Float64("scale", 1, "uniform scale")
	sjis := flag.Bool("sjis", false, "prefab description is Shift_JIS")
	logLevel := flag.String("loglevel", "info", "debug, info, warn or error")
	logFile := flag.String("logfile", "", "rotating log file")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return
	}
	input := flag.Arg(0)
	if *output == "" && flag.NArg() > 1 {
		*output = flag.Arg(1)
	}
	*output = outputFile(input, *output, *name)

	lg := newLogger(*logLevel, *logFile)
	defer lg.Sync()

	prefab, err := loadPrefab(input, *sjis)
	if err != nil {
		lg.Fatal("load prefab", zap.String("input", input), zap.Error(err))
	}
	clips, err := loadClips(*anims)
	if err != nil {
		lg.Fatal("load clips", zap.Error(err))
	}

	conv := converter.NewCocosToGLTFConverter(&converter.CocosToGLTFOption{
		Logger:              lg,
		KeepZeroFactors:     *keepZero,
		SniffTextures:       !*noSniff,
		DropEmptyAnimations: *dropEmpty,
	})
	doc, err := conv.Convert(prefab, clips...)
	if err != nil {
		lg.Fatal("convert", zap.String("input", input), zap.Error(err))
	}
	if err := gltfutil.Scale(doc, float32(*scale)); err != nil {
		lg.Fatal("scale", zap.Error(err))
	}
	if err := gltfutil.Save(doc, *output, *embed); err != nil {
		lg.Fatal("save", zap.String("output", *output), zap.Error(err))
	}
	lg.Info("saved", zap.String("output", *output), zap.String("summary", gltfutil.Summary(doc)))
}
