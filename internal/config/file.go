package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML shape. Pointer fields distinguish "absent"
// from a zero value so only keys present in the file override defaults.
//
//	input: ./game
//	output: ./dist
//	exclude: ["**/*.psd"]
//	keep_music: false
//	precompress: [gzip, br]
//	watch: false
//	color: auto
//	log: supermin.log
//	verbose: false
//	images:
//	  pngquant: /usr/local/bin/pngquant
//	  colors: 128
//	  atomic: true
type FileConfig struct {
	Input       *string     `yaml:"input"`
	Output      *string     `yaml:"output"`
	Exclude     []string    `yaml:"exclude"`
	KeepMusic   *bool       `yaml:"keep_music"`
	Precompress []string    `yaml:"precompress"`
	Watch       *bool       `yaml:"watch"`
	Color       *string     `yaml:"color"`
	Log         *string     `yaml:"log"`
	Verbose     *bool       `yaml:"verbose"`
	Images      *FileImages `yaml:"images"`
}

// FileImages groups the image quantizer settings.
type FileImages struct {
	Pngquant *string `yaml:"pngquant"`
	Colors   *int    `yaml:"colors"`
	Atomic   *bool   `yaml:"atomic"`
}

// LoadFile reads and strictly decodes a YAML config file. Unknown keys are
// an error so typos don't silently fall back to defaults.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return parseFile(data, path)
}

func parseFile(data []byte, name string) (*FileConfig, error) {
	fc := &FileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", name, err)
	}
	return fc, nil
}

// applyTo copies every present file value into cfg unless changed reports
// that the matching flag was passed on the command line.
func (fc *FileConfig) applyTo(cfg *Config, changed func(flag string) bool) error {
	if fc.Input != nil && !changed("input") {
		cfg.InputDir = *fc.Input
	}
	if fc.Output != nil && !changed("output") {
		cfg.OutputDir = *fc.Output
	}
	if fc.Exclude != nil && !changed("exclude") {
		cfg.Exclude = append([]string(nil), fc.Exclude...)
	}
	if fc.KeepMusic != nil && !changed("keep-music") {
		cfg.KeepMusic = *fc.KeepMusic
	}
	if fc.Precompress != nil && !changed("precompress") {
		algs := make([]Algorithm, 0, len(fc.Precompress))
		for _, s := range fc.Precompress {
			a, err := ParseAlgorithm(s)
			if err != nil {
				return err
			}
			algs = append(algs, a)
		}
		cfg.Precompress = algs
	}
	if fc.Watch != nil && !changed("watch") {
		cfg.Watch = *fc.Watch
	}
	if fc.Color != nil && !changed("color") && !changed("no-color") {
		cfg.ColorMode = ColorMode(*fc.Color)
	}
	if fc.Log != nil && !changed("log") {
		cfg.LogFile = *fc.Log
	}
	if fc.Verbose != nil && !changed("verbose") {
		cfg.Verbose = *fc.Verbose
	}
	if img := fc.Images; img != nil {
		if img.Pngquant != nil && !changed("pngquant") {
			cfg.PngquantPath = *img.Pngquant
		}
		if img.Colors != nil && !changed("colors") {
			cfg.Colors = *img.Colors
		}
		if img.Atomic != nil && !changed("atomic-images") {
			cfg.AtomicImages = *img.Atomic
		}
	}
	return nil
}
