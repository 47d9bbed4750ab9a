package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chaos-io/cutout/client"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "background-removal server")
	outDir := flag.String("out", "./output", "output directory")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("usage: uploader [-server url] [-out dir] image...")
	}
	if err := os.MkdirAll(*outDir, os.ModePerm); err != nil {
		log.Fatal("create output dir: ", err)
	}

	c := client.New(*server)
	failed := 0
	for _, path := range flag.Args() {
		if err := upload(c, path, *outDir, *timeout); err != nil {
			log.Printf("失败 %s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func upload(c *client.Client, path, outDir string, timeout time.Duration) error {
	data, err := client.LoadFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, res, err := c.RemoveBackground(ctx, data)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_no_bg.png"
	outPath := filepath.Join(outDir, name)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return err
	}
	if res.Degraded {
		log.Printf("%s: local transform could not process the image, original returned", path)
	}
	log.Println("下载:", outPath)
	return nil
}
