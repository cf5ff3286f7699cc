package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tangzhangming/jack/internal/compiler"
	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/hackasm"
	"github.com/tangzhangming/jack/internal/lexer"
	"github.com/tangzhangming/jack/internal/parser"
	"github.com/tangzhangming/jack/internal/project"
	"github.com/tangzhangming/jack/internal/vmtrans"
)

const (
	Version = "0.1.0"

	SourceFileExtension = ".jack"
)

func main() {
	args := os.Args[1:]

	if len(args) < 1 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]

	switch command {
	case "build":
		cmdBuild(args[1:])
	case "check":
		cmdCheck(args[1:])
	case "init":
		cmdInit(args[1:])
	case "version", "-v", "--version":
		cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		// 兼容旧用法：直接编译文件
		if !isFlag(command) {
			cmdBuild(args)
		} else {
			fmt.Fprintf(os.Stderr, "未知命令: %s\n\n", command)
			printUsage()
			os.Exit(1)
		}
	}
}

func isFlag(s string) bool {
	return len(s) > 0 && s[0] == '-'
}

func printUsage() {
	fmt.Printf("Jack 编译器 v%s\n\n", Version)
	fmt.Println("用法:")
	fmt.Println("  jackc <command> [options] [arguments]")
	fmt.Println()
	fmt.Println("命令:")
	fmt.Println("  build <file|dir>  编译为虚拟机指令")
	fmt.Println("  check <file|dir>  语法检查，不产出文件")
	fmt.Println("  init [dir]        生成默认的 jack.toml")
	fmt.Println("  version           显示版本信息")
	fmt.Println("  help              显示帮助信息")
	fmt.Println()
	fmt.Println("选项:")
	fmt.Println("  -tokens           打印 Token 序列")
	fmt.Println("  -ast              打印语法树")
	fmt.Println("  -target <t>       构建目标：vm / asm / hack")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Printf("  jackc build Main%s\n", SourceFileExtension)
	fmt.Printf("  jackc build -target hack ./src\n")
	fmt.Printf("  jackc check -ast Main%s\n", SourceFileExtension)
}

// cmdBuild 编译 Jack 源文件
func cmdBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	showTokens := fs.Bool("tokens", false, "打印 Token 序列")
	showAST := fs.Bool("ast", false, "打印语法树")
	target := fs.String("target", "", "构建目标：vm / asm / hack")

	fs.Usage = func() {
		fmt.Println("用法: jackc build [options] <file|dir>")
		fmt.Println()
		fmt.Println("选项:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	path := fs.Arg(0)

	// 不给路径时按项目配置构建
	cfg := loadProjectConfig(path)
	if path == "" {
		if cfg == nil {
			fs.Usage()
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, "没有输入文件，当前目录也没有 "+project.ConfigFileName)
			os.Exit(1)
		}
		path = filepath.Join(project.GetProjectRoot("."), cfg.Build.Source)
	}
	if *target == "" {
		if cfg != nil {
			*target = cfg.Build.Target
		} else {
			*target = "vm"
		}
	}
	if *target != "vm" && *target != "asm" && *target != "hack" {
		fmt.Fprintf(os.Stderr, "未知构建目标 %q（应为 vm / asm / hack）\n", *target)
		os.Exit(1)
	}

	files, err := collectSourceFiles(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "%s 下没有 %s 文件\n", path, SourceFileExtension)
		os.Exit(1)
	}

	reporter := errors.NewReporter()
	failed := 0

	// 文件之间错误隔离：一个文件失败不影响其余文件
	for _, file := range files {
		if err := buildFile(file, *target, *showTokens, *showAST, reporter); err != nil {
			reporter.ReportAny(err)
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d 个文件编译失败\n", failed)
		os.Exit(1)
	}
}

// buildFile 编译单个文件，按目标逐级向下翻译
func buildFile(path, target string, showTokens, showAST bool, reporter *errors.Reporter) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	source := string(data)
	reporter.SetSource(path, source)

	if showTokens {
		printTokens(source, path)
	}

	p := parser.New(source, path)
	class, err := p.Parse()
	if err != nil {
		return err
	}

	if showAST {
		fmt.Println("=== AST ===")
		fmt.Println(class.String())
	}

	vmCode, err := compiler.New().Compile(class)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	outPath := base + ".vm"
	if err := os.WriteFile(outPath, []byte(vmCode), 0644); err != nil {
		return err
	}
	fmt.Printf("编译完成: %s\n", outPath)

	if target == "vm" {
		return nil
	}

	moduleName := filepath.Base(base)
	asmCode, err := vmtrans.TranslateSource(vmCode, moduleName, outPath)
	if err != nil {
		return err
	}
	asmPath := base + ".asm"
	if err := os.WriteFile(asmPath, []byte(asmCode), 0644); err != nil {
		return err
	}
	fmt.Printf("翻译完成: %s\n", asmPath)

	if target == "asm" {
		return nil
	}

	hackCode, err := hackasm.AssembleSource(asmCode, asmPath)
	if err != nil {
		return err
	}
	hackPath := base + ".hack"
	if err := os.WriteFile(hackPath, []byte(hackCode), 0644); err != nil {
		return err
	}
	fmt.Printf("汇编完成: %s\n", hackPath)

	return nil
}

// cmdCheck 语法检查
func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	showTokens := fs.Bool("tokens", false, "打印 Token 序列")
	showAST := fs.Bool("ast", false, "打印语法树")

	fs.Usage = func() {
		fmt.Println("用法: jackc check [options] <file|dir>")
		fmt.Println()
		fmt.Println("选项:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fs.Usage()
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "没有输入文件")
		os.Exit(1)
	}

	files, err := collectSourceFiles(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
		os.Exit(1)
	}

	reporter := errors.NewReporter()
	failed := 0

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取失败: %v\n", err)
			failed++
			continue
		}
		source := string(data)
		reporter.SetSource(file, source)

		if *showTokens {
			printTokens(source, file)
		}

		class, err := parser.New(source, file).Parse()
		if err != nil {
			reporter.ReportAny(err)
			failed++
			continue
		}

		if *showAST {
			fmt.Println("=== AST ===")
			fmt.Println(class.String())
		}

		fmt.Printf("语法正确: %s\n", file)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// cmdInit 生成默认配置文件
func cmdInit(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无效路径: %v\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(dir, project.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "%s 已存在\n", configPath)
		os.Exit(1)
	}

	cfg := project.GenerateDefault(abs)
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "写入失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("已生成 %s\n", configPath)
}

// cmdVersion 显示版本信息
func cmdVersion() {
	fmt.Printf("Jack 编译器 v%s\n", Version)
	fmt.Println("Jack -> 虚拟机指令 -> Hack 汇编 -> 机器码")
}

// loadProjectConfig 查找并加载项目配置，找不到返回 nil
func loadProjectConfig(startPath string) *project.Config {
	if startPath == "" {
		startPath = "."
	}
	configPath := project.FindConfigFile(startPath)
	if configPath == "" {
		return nil
	}
	cfg, err := project.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置无效: %v\n", err)
		return nil
	}
	return cfg
}

// collectSourceFiles 收集编译输入
//
// 单个文件原样返回；目录则收集一层内全部 .jack 文件，按名字排序。
func collectSourceFiles(path string) ([]string, error) {
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
		if filepath.Ext(entry.Name()) == SourceFileExtension {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// printTokens 打印 Token 序列
func printTokens(source, filename string) {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	fmt.Println("=== Tokens ===")
	for _, tok := range tokens {
		fmt.Printf("  %s\n", tok)
	}
	fmt.Println()

	if l.HasErrors() {
		fmt.Println("词法错误:")
		for _, e := range l.Errors() {
			fmt.Printf("  %s\n", e)
		}
	}
}
