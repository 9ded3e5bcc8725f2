package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/sxml"
)

type cmdopts struct {
	Offsets bool `long:"offsets" description:"annotate errors with byte offsets only (no message)"`
	Version bool `long:"version"`
}

func main() {
	os.Exit(_main())
}

func showVersion() {
	fmt.Printf("sxml-dump: using sxml version %s\n", sxml.Version)
}

func showUsage() {
	fmt.Printf(`Usage : sxml-dump [options] XMLfiles ...
	Parse the XML files (or stdin) and dump the resulting event stream
	--version : display the version of the XML library used
`)
}

func _main() int {
	opts := cmdopts{}
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		showUsage()
		return 1
	}

	if opts.Version {
		showVersion()
		return 0
	}

	inputCh := make(chan io.Reader)
	errCh := make(chan error, 1)
	switch {
	case len(args) > 0: // filename present
		go func() {
			defer close(inputCh)
			for _, f := range args {
				fh, err := os.Open(f)
				if err != nil {
					errCh <- err
					return
				}
				inputCh <- fh
			}
		}()
	default:
		go func() {
			defer close(inputCh)
			inputCh <- os.Stdin
		}()
	}

	for in := range inputCh {
		if err := dump(os.Stdout, in, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		if c, ok := in.(io.Closer); ok && in != os.Stdin {
			c.Close()
		}
	}

	select {
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	default:
	}

	return 0
}

func dump(out io.Writer, in io.Reader, opts cmdopts) error {
	p := sxml.NewPullParser(in)
	for {
		ev, err := p.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			var perr *sxml.ErrParse
			if opts.Offsets && sxml.AsParseError(err, &perr) {
				return fmt.Errorf("%s at byte %d", perr.Kind, perr.Offset)
			}
			return err
		}
		switch ev := ev.(type) {
		case *sxml.XMLDecl:
			fmt.Fprintf(out, "xmldecl version=%q encoding=%q standalone=%q\n", ev.Version, ev.Encoding, ev.Standalone)
		case *sxml.StartElement:
			fmt.Fprintf(out, "start {%s}%s", ev.Name.URI, ev.Name.Local)
			for _, a := range ev.Attrs {
				fmt.Fprintf(out, " {%s}%s=%q", a.Name.URI, a.Name.Local, a.Value)
			}
			fmt.Fprintln(out)
		case *sxml.EndElement:
			fmt.Fprintln(out, "end")
		case *sxml.Text:
			fmt.Fprintf(out, "text %q\n", ev.Content)
		}
	}
}
