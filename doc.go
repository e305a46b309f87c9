// Package vsbridge presents the frames of a scripted video producer to a
// host whose buffer layouts are fixed and mostly 8-bit.
//
// The module is organised bottom-up:
//
//   - format maps producer pixel formats to consumer layouts.
//   - geometry resolves the packing mode (native, doubled width or stacked)
//     and the consumer frame and plane geometry.
//   - transcode holds the three per-frame copy strategies: planar blit,
//     MSB/LSB stacking and packed BGR reassembly.
//   - engine declares the script engine interfaces and the reference-counted
//     runtime shared by all sessions; synth is a YAML-driven engine.
//   - bridge ties them into a Session that validates a clip once and then
//     converts frames on request.
//   - host, server, framedump, config and cmd/vsbridge are the embedding
//     shell: handle registry, HTTP frame server, compressed frame dumps,
//     configuration and the command-line tool.
//
// Typical use from Go:
//
//	h := host.New(synth.NewEngine(), host.WithNativeFormats(false))
//	defer h.Shutdown()
//
//	handle, err := h.OpenSource(host.OpenRequest{Source: "clip.yaml", Stacked: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	buf, err := h.Frame(handle, 0)
package vsbridge
