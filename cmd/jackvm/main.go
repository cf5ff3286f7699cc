package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/vmtrans"
)

const Version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "显示版本信息")

	flag.Usage = func() {
		fmt.Println("Jack 虚拟机指令翻译器 - .vm -> .asm")
		fmt.Println()
		fmt.Println("用法:")
		fmt.Println("  jackvm <file.vm|dir>")
		fmt.Println()
		fmt.Println("目录输入时逐文件翻译，每个 .vm 产出同名 .asm。")
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("Jack 虚拟机指令翻译器 v%s\n", Version)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	files, err := collectFiles(flag.Arg(0), ".vm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s 下没有 .vm 文件\n", flag.Arg(0))
		os.Exit(1)
	}

	reporter := errors.NewReporter()
	failed := 0

	for _, file := range files {
		if err := translateFile(file, reporter); err != nil {
			reporter.ReportAny(err)
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func translateFile(path string, reporter *errors.Reporter) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	reporter.SetSource(path, string(data))

	base := strings.TrimSuffix(path, filepath.Ext(path))
	moduleName := filepath.Base(base)

	asmCode, err := vmtrans.TranslateSource(string(data), moduleName, path)
	if err != nil {
		return err
	}

	outPath := base + ".asm"
	if err := os.WriteFile(outPath, []byte(asmCode), 0644); err != nil {
		return err
	}

	fmt.Printf("翻译完成: %s\n", outPath)
	return nil
}

func collectFiles(path, ext string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ext {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}
