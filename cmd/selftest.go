package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/rubiojr/objcbridge/bridge"
	"github.com/rubiojr/objcbridge/ffi"
	"github.com/rubiojr/objcbridge/native/objcsim"
	"github.com/rubiojr/objcbridge/objc"
	"github.com/rubiojr/objcbridge/objcrt"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// sendsPerJob is how many round trips each concurrent job makes.
const sendsPerJob = 100

type check struct {
	name string
	run  func(ctx context.Context, b *bridge.Context) error
}

func selftestAction(ctx context.Context, cmd *cli.Command) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(cmd.Bool("verbose"))}))
	opts := []bridge.Option{bridge.WithLogger(logger)}

	var b *bridge.Context
	var err error
	if cmd.Bool("native") {
		b, err = bridge.Open(opts...)
	} else {
		rt := objcsim.NewFoundation(ffi.NewCodeTable())
		b, err = bridge.New(append(opts, bridge.WithRuntime(rt))...)
	}
	if err != nil {
		return err
	}

	jobs := cmd.Int("jobs")
	if jobs < 1 {
		jobs = 1
	}
	w := cmd.Root().Writer
	failed := runChecks(ctx, b, w, selftestChecks(jobs), useColor(cmd.Bool("no-color"), w))
	if err := b.Close(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d checks failed", failed)
	}
	return nil
}

// runChecks runs every check in order, printing one PASS or FAIL line each
// and a summary. It returns the number of failures.
func runChecks(ctx context.Context, b *bridge.Context, w io.Writer, checks []check, color bool) int {
	colorOK, colorFail, colorReset := "\033[32m", "\033[31m", "\033[0m"
	if !color {
		colorOK, colorFail, colorReset = "", "", ""
	}
	failed := 0
	for _, c := range checks {
		if err := c.run(ctx, b); err != nil {
			failed++
			fmt.Fprintf(w, "%sFAIL%s %s: %v\n", colorFail, colorReset, c.name, err)
			continue
		}
		fmt.Fprintf(w, "%sPASS%s %s\n", colorOK, colorReset, c.name)
	}
	fmt.Fprintf(w, "\n%d checks, %d passed, %d failed\n", len(checks), len(checks)-failed, failed)
	return failed
}

func selftestChecks(jobs int) []check {
	return []check{
		{"autorelease pool", checkPool},
		{"class messages", checkClassMessages},
		{"floating-point returns", checkFloatReturns},
		{"mirror resolution", checkMirrorResolution},
		{"closure callback", checkClosureCallback},
		{fmt.Sprintf("concurrent sends (%d jobs)", jobs), func(ctx context.Context, b *bridge.Context) error {
			return checkConcurrentSends(ctx, b, jobs)
		}},
	}
}

func checkPool(_ context.Context, b *bridge.Context) error {
	p, err := objc.NSAutoreleasePoolClass.Alloc(b)
	if err != nil {
		return err
	}
	if p, err = p.Init(b); err != nil {
		return err
	}
	if p.IsNil() {
		return fmt.Errorf("init returned nil")
	}
	return p.Drain(b)
}

func checkClassMessages(_ context.Context, b *bridge.Context) error {
	n, err := objc.NSNumberClass.NumberWithInt(b, -42)
	if err != nil {
		return err
	}
	v, err := n.IntValue(b)
	if err != nil {
		return err
	}
	if v != -42 {
		return fmt.Errorf("intValue = %d, want -42", v)
	}
	obj, err := objc.NSObjectClass.New(b)
	if err != nil {
		return err
	}
	same, err := obj.IsEqual(b, obj)
	if err != nil {
		return err
	}
	if !same {
		return fmt.Errorf("object is not equal to itself")
	}
	return nil
}

func checkFloatReturns(_ context.Context, b *bridge.Context) error {
	d, err := objc.NSNumberClass.NumberWithDouble(b, 2.5)
	if err != nil {
		return err
	}
	dv, err := d.DoubleValue(b)
	if err != nil {
		return err
	}
	if dv != 2.5 {
		return fmt.Errorf("doubleValue = %v, want 2.5", dv)
	}
	f, err := objc.NSNumberClass.NumberWithFloat(b, 0.25)
	if err != nil {
		return err
	}
	fv, err := f.FloatValue(b)
	if err != nil {
		return err
	}
	if fv != 0.25 {
		return fmt.Errorf("floatValue = %v, want 0.25", fv)
	}
	return nil
}

// checkMirrorResolution sends through the generic ID type so the bridge has
// to find the mirror itself. The concrete classes behind NSNumber and
// NSMutableArray have no mirror of their own.
func checkMirrorResolution(_ context.Context, b *bridge.Context) error {
	n, err := bridge.Send[objcrt.ID](b, objc.NSNumberClass, "numberWithInt:", int32(1))
	if err != nil {
		return err
	}
	if _, ok := n.(*objc.NSNumber); !ok {
		return fmt.Errorf("numberWithInt: resolved to %T", n)
	}
	a, err := bridge.Send[objcrt.ID](b, objc.NSMutableArrayClass, "array")
	if err != nil {
		return err
	}
	if _, ok := a.(*objc.NSMutableArray); !ok {
		return fmt.Errorf("array resolved to %T", a)
	}
	return nil
}

func checkClosureCallback(_ context.Context, b *bridge.Context) error {
	arr, err := objc.NSMutableArrayClass.Array(b)
	if err != nil {
		return err
	}
	for _, v := range []int64{3, -1, 2} {
		n, err := objc.NSNumberClass.NumberWithLongLong(b, v)
		if err != nil {
			return err
		}
		if err := arr.AddObject(b, n); err != nil {
			return err
		}
	}
	calls := 0
	err = arr.SortUsingFunction(b, func(x, y *objc.NSNumber, _ objcrt.Pointer) int64 {
		calls++
		order, err := x.Compare(b, y)
		if err != nil {
			panic(err)
		}
		return order
	}, objcrt.Pointer{})
	if err != nil {
		return err
	}
	if calls == 0 {
		return fmt.Errorf("comparator never called")
	}
	count, err := arr.Count(b)
	if err != nil {
		return err
	}
	var got []int64
	for i := range count {
		obj, err := arr.ObjectAtIndex(b, i)
		if err != nil {
			return err
		}
		n, ok := obj.(*objc.NSNumber)
		if !ok {
			return fmt.Errorf("element %d is %T", i, obj)
		}
		v, err := n.LongLongValue(b)
		if err != nil {
			return err
		}
		got = append(got, v)
	}
	if want := []int64{-1, 2, 3}; !slices.Equal(got, want) {
		return fmt.Errorf("sorted to %v, want %v", got, want)
	}
	return nil
}

func checkConcurrentSends(ctx context.Context, b *bridge.Context, jobs int) error {
	g, ctx := errgroup.WithContext(ctx)
	for job := range jobs {
		g.Go(func() error {
			for i := range sendsPerJob {
				if err := ctx.Err(); err != nil {
					return err
				}
				want := int64(job*sendsPerJob + i)
				n, err := objc.NSNumberClass.NumberWithLongLong(b, want)
				if err != nil {
					return err
				}
				got, err := n.LongLongValue(b)
				if err != nil {
					return err
				}
				if got != want {
					return fmt.Errorf("job %d: longLongValue = %d, want %d", job, got, want)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
