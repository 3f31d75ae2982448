// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.


package main

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/lassandro/gomk61/pkg/assembler"
	"github.com/lassandro/gomk61/pkg/machine"
)

type cli struct {
	File  string `arg:"" optional:"" type:"existingfile" help:"ROM source, read from stdin when piped"`
	Debug bool   `help:"Writes a symbol table next to the output, with extension '.mkdb'"`
	Out   string `short:"o" type:"path" help:"Output file, overriding the name derived from the input"`
}

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func replaceExt(filename, ext string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}

// Prints each error with its source line and the offending token underlined.
func printErrors(input io.ReadSeeker, errs []error) {
	for _, err := range errs {
		tokenErr, ok := err.(assembler.TokenError)

		if !ok || input == os.Stdin {
			log.Println(err)
			continue
		}

		cursor := tokenErr.GetPosition()

		if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
			log.Println(err)
			continue
		}

		line, _ := bufio.NewReader(input).ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		size := int(cursor.Size)
		if size < 1 {
			size = 1
		}

		underlinefmt := fmt.Sprintf(
			"%% %ds%s",
			int(cursor.Byte-cursor.LineByte)+1,
			strings.Repeat("~", size-1),
		)

		log.Printf(
			"%s\n%s\n\033[31m%s\033[0m",
			err,
			line,
			fmt.Sprintf(underlinefmt, "^"),
		)
	}
}

func (args *cli) Run() error {
	var infile string
	var input io.ReadSeeker

	if stat, _ := os.Stdin.Stat(); args.File == "" && stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m")

		if args.Out == "" {
			args.Out = "out.rom"
		}
	} else {
		if args.File == "" {
			return fmt.Errorf("expected a source file or piped input")
		}

		file, err := os.Open(args.File)

		if err != nil {
			return err
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			return err
		} else if stat.IsDir() {
			return fmt.Errorf("%s is not a valid ROM source file", filename)
		}

		input = file
		infile = file.Name()
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

		if args.Out == "" {
			args.Out = replaceExt(filename, ".rom")
		}
	}

	var symtable *assembler.SymTable

	if args.Debug {
		symtable = assembler.NewSymTable()

		if infile != "" {
			var err error

			if symtable.Source, err = filepath.Abs(infile); err != nil {
				log.Println(err)
				symtable.Source = ""
			}
		}
	}

	roms, errs := assembler.AssembleROMSource(input, symtable)

	if len(errs) > 0 {
		printErrors(input, errs)
		return fmt.Errorf("%d errors", len(errs))
	}

	{
		buffer := new(bytes.Buffer)

		if err := machine.WriteROM(buffer, roms); err != nil {
			return fmt.Errorf("Error writing output file: %w", err)
		}

		if err := os.WriteFile(args.Out, buffer.Bytes(), 0666); err != nil {
			return fmt.Errorf("Error writing output file: %w", err)
		}
	}

	if symtable != nil {
		filename := replaceExt(args.Out, ".mkdb")

		file, err := os.Create(filename)

		if err != nil {
			return fmt.Errorf("Error creating symbol table: %w", err)
		}

		defer file.Close()

		if err := gob.NewEncoder(file).Encode(symtable); err != nil {
			return fmt.Errorf("Error writing symbol table: %w", err)
		}
	}

	return nil
}

func mk61_asm() int {
	var args cli

	kong.Parse(
		&args,
		kong.Name("mk61-asm"),
		kong.Description("Assembles MK-61 chip ROM sources into a ROM image"),
		kong.UsageOnError(),
	)

	if err := args.Run(); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(mk61_asm())
}
