package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/hackasm"
)

const Version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "显示版本信息")
	output := flag.String("o", "", "输出文件路径（默认同名 .hack）")

	flag.Usage = func() {
		fmt.Println("Hack 汇编器 - .asm -> .hack")
		fmt.Println()
		fmt.Println("用法:")
		fmt.Println("  hackasm [options] <file.asm>")
		fmt.Println()
		fmt.Println("选项:")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("Hack 汇编器 v%s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
		os.Exit(1)
	}

	reporter := errors.NewReporter()
	reporter.SetSource(path, string(data))

	hackCode, err := hackasm.AssembleSource(string(data), path)
	if err != nil {
		reporter.ReportAny(err)
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".hack"
	}

	if err := os.WriteFile(outPath, []byte(hackCode), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "写入失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("汇编完成: %s\n", outPath)
}
