package engine

import (
	"github.com/nucleobio/loadpulses/column"
	"github.com/nucleobio/loadpulses/errs"
	"github.com/nucleobio/loadpulses/internal/lookup"
	"github.com/nucleobio/loadpulses/internal/projection"
	"github.com/nucleobio/loadpulses/metric"
	"github.com/nucleobio/loadpulses/movie"
)

// computeMetric projects one resolved metric's values for one lookup entry
// into an alignment-space column array of length span+1. It is the
// single point where every metric kind's projection pattern is realized;
// column-major and row-major callers differ only in which source
// implementation they pass in.
func computeMetric(res metric.Resolution, e lookup.Entry, src source) (column.Array, error) {
	d := res.Descriptor
	span := e.OffsetEnd - e.OffsetBegin
	baseToAlnMap := projection.BaseToAlignmentMap(e.AlignedSequence)
	queryStart := int(e.QueryStart)
	ungappedLen := int(e.QueryEnd - e.QueryStart)

	if len(baseToAlnMap) != ungappedLen {
		return column.Array{}, errs.New(errs.Integrity,
			"alignment %d: base->alignment map has length %d, want ungapped length %d",
			e.AlignmentIndex, len(baseToAlnMap), ungappedLen)
	}

	switch d.Kind {
	case metric.PerBaseFromBase:
		full, err := src.BaseWindow(d.BaseFields[0], e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(full, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projectByKind(d, span, baseToAlnMap, win)

	case metric.PerBaseFromPulse:
		full, err := src.PulseGather(d.PulseFields[0], e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(full, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectFloat32(span, baseToAlnMap, win.F32), nil

	case metric.DerivedStartFrameBase:
		sf, err := startFrameBaseFull(src, e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(column.Array{Kind: column.Uint32, U32: sf}, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint32(span, baseToAlnMap, movie.SentinelUint32, win.U32), nil

	case metric.DerivedStartFramePulse:
		full, err := src.PulseGather(movie.FieldPulseStartFrame, e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(full, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint32(span, baseToAlnMap, movie.SentinelUint32, win.U32), nil

	case metric.DerivedStartFrame:
		if res.UsePulsePath {
			full, err := src.PulseGather(movie.FieldPulseStartFrame, e)
			if err != nil {
				return column.Array{}, err
			}
			win, err := windowed(full, queryStart, ungappedLen)
			if err != nil {
				return column.Array{}, err
			}
			return projection.ProjectUint32(span, baseToAlnMap, movie.SentinelUint32, win.U32), nil
		}
		sf, err := startFrameBaseFull(src, e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(column.Array{Kind: column.Uint32, U32: sf}, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint32(span, baseToAlnMap, movie.SentinelUint32, win.U32), nil

	case metric.DerivedWidthInFrames:
		if res.UsePulsePath {
			full, err := src.PulseGather(movie.FieldPulseWidthInFrames, e)
			if err != nil {
				return column.Array{}, err
			}
			win, err := windowed(full, queryStart, ungappedLen)
			if err != nil {
				return column.Array{}, err
			}
			return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil
		}
		full, err := src.BaseWindow(movie.FieldBaseWidthInFrames, e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(full, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil

	case metric.DerivedIPD:
		if res.UsePulsePath {
			sfFull, err := src.PulseGather(movie.FieldPulseStartFrame, e)
			if err != nil {
				return column.Array{}, err
			}
			widFull, err := src.PulseGather(movie.FieldPulseWidthInFrames, e)
			if err != nil {
				return column.Array{}, err
			}
			ipdFull := projection.IPDPulseDerived(sfFull.U32, widFull.U16)
			win, err := windowed(column.Array{Kind: column.Uint16, U16: ipdFull}, queryStart, ungappedLen)
			if err != nil {
				return column.Array{}, err
			}
			return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil
		}
		full, err := src.BaseWindow(movie.FieldPreBaseFrames, e)
		if err != nil {
			return column.Array{}, err
		}
		win, err := windowed(full, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil

	case metric.DerivedLight:
		meanFull, err := src.PulseGather(movie.FieldMeanSignal, e)
		if err != nil {
			return column.Array{}, err
		}
		widFull, err := src.PulseGather(movie.FieldPulseWidthInFrames, e)
		if err != nil {
			return column.Array{}, err
		}
		lightFull := projection.Light(meanFull.F32, widFull.U16)
		win, err := windowed(column.Array{Kind: column.Uint16, U16: lightFull}, queryStart, ungappedLen)
		if err != nil {
			return column.Array{}, err
		}
		return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil

	default:
		return column.Array{}, errs.New(errs.Config, "metric %q has no projection implementation", d.Name)
	}
}

// startFrameBaseFull computes StartFrameBase over the read's full
// length, since the running sum is anchored at the read's own start, not the
// alignment's query start.
func startFrameBaseFull(src source, e lookup.Entry) ([]uint32, error) {
	pbf, err := src.BaseWindow(movie.FieldPreBaseFrames, e)
	if err != nil {
		return nil, err
	}
	wid, err := src.BaseWindow(movie.FieldBaseWidthInFrames, e)
	if err != nil {
		return nil, err
	}
	return projection.StartFrameBase(pbf.U16, wid.U16), nil
}

// windowed slices a read-relative array down to [start, start+length), the
// alignment's query range within the read.
func windowed(a column.Array, start, length int) (column.Array, error) {
	if start < 0 || length < 0 || start+length > a.Len() {
		return column.Array{}, errs.New(errs.Bounds,
			"query window [%d,%d) exceeds read-relative array of length %d", start, start+length, a.Len())
	}
	return a.Slice(start, length), nil
}

// projectByKind dispatches PerBaseFromBase projection on the source field's
// element kind, applying each kind's sentinel and (for quality values) cap.
func projectByKind(d metric.Descriptor, span int64, baseToAlnMap []int32, win column.Array) (column.Array, error) {
	switch win.Kind {
	case column.Uint8:
		return projection.ProjectUint8(span, baseToAlnMap, movie.SentinelQualityValue, d.Cap100, win.U8), nil
	case column.Int8:
		return projection.ProjectInt8(span, baseToAlnMap, movie.SentinelTag, win.I8), nil
	case column.Uint16:
		return projection.ProjectUint16(span, baseToAlnMap, movie.SentinelFrameRate, win.U16), nil
	case column.Uint32:
		return projection.ProjectUint32(span, baseToAlnMap, movie.SentinelUint32, win.U32), nil
	case column.Float32:
		return projection.ProjectFloat32(span, baseToAlnMap, win.F32), nil
	default:
		return column.Array{}, errs.New(errs.Config, "metric %q has unsupported element kind %v", d.Name, win.Kind)
	}
}
