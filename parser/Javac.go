package parser

import (
	"path/filepath"
	"strings"

	"github.com/goma/gomacc/internal/fsutil"
)

// parseJavac implements the subset of javac's flags relevant to
// cache-key construction: output dirs, classpath jars and annotation
// processors.
func parseJavac(inv *Invocation, args []string) *Invocation {
	inv.Lang = "java"
	var outputDir string
	var sawDashD bool

	i := 0
	for i < len(args) {
		tok := args[i]
		switch {
		case tok == "-d":
			i++
			if i < len(args) {
				outputDir = args[i]
				sawDashD = true
				inv.OutputDirs = append(inv.OutputDirs, fsutil.Directory(outputDir))
			}
		case tok == "-s":
			i++
			if i < len(args) {
				inv.OutputDirs = append(inv.OutputDirs, fsutil.Directory(args[i]))
			}
		case tok == "-cp" || tok == "-classpath" || tok == "-bootclasspath" || tok == "-processorpath":
			i++
			if i < len(args) {
				appendClasspathJars(inv, args[i])
			}
		case tok == "-processor":
			// annotation-processor class list; not a cache-relevant input,
			// just consume its argument.
			i++
		case strings.HasPrefix(tok, "-J"):
			// JVM argument, ignored.
		case strings.HasPrefix(tok, "-"):
			inv.addUnknown(tok)
		default:
			inv.addInput(tok)
		}
		i++
	}

	inv.Mode = ModeCompile
	for _, in := range inv.InputFiles {
		if filepath.Ext(string(in)) != ".java" {
			continue
		}
		stem := strings.TrimSuffix(filepath.Base(string(in)), ".java") + ".class"
		if sawDashD {
			inv.addOutput(filepath.Join(outputDir, stem))
		} else {
			inv.addOutput(stem)
		}
	}

	return inv.ok()
}

// parseJava implements the java launcher's cache-relevant flags: a
// -jar input and classpath jars.
func parseJava(inv *Invocation, args []string) *Invocation {
	inv.Lang = "java"
	inv.Mode = ModeLink

	i := 0
	for i < len(args) {
		tok := args[i]
		switch {
		case tok == "-jar":
			i++
			if i < len(args) {
				inv.addInput(args[i])
			}
		case tok == "-cp" || tok == "-classpath":
			i++
			if i < len(args) {
				appendClasspathJars(inv, args[i])
			}
		case strings.HasPrefix(tok, "-J"):
			// ignored JVM arg.
		case strings.HasPrefix(tok, "-"):
			inv.addUnknown(tok)
		default:
			inv.addInput(tok)
		}
		i++
	}

	return inv.ok()
}

func appendClasspathJars(inv *Invocation, classpath string) {
	sep := ":"
	if strings.Contains(classpath, ";") {
		sep = ";"
	}
	for _, entry := range strings.Split(classpath, sep) {
		ext := strings.ToLower(filepath.Ext(entry))
		if ext == ".jar" || ext == ".zip" {
			inv.addOptionalInput(entry)
		}
	}
}
