package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// csvFiles lists the .csv files directly inside dir
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// promptPaths asks for both comparison files on in
func promptPaths(in io.Reader, out io.Writer) (string, string, error) {
	scanner := bufio.NewScanner(in)
	ask := func(question string) (string, error) {
		fmt.Fprint(out, question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "\nEnter file paths manually:")
	file1, err := ask("Enter path to first CSV file: ")
	if err != nil {
		return "", "", fmt.Errorf("reading first path: %w", err)
	}
	file2, err := ask("Enter path to second CSV file: ")
	if err != nil {
		return "", "", fmt.Errorf("reading second path: %w", err)
	}
	return file1, file2, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
