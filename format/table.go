package format

// tableEntry maps one producer format to the consumer layout used on hosts
// without wide-sample support (legacy) and on hosts with it (native).
type tableEntry struct {
	producer ProducerID
	legacy   ConsumerID
	native   ConsumerID
}

var table = []tableEntry{
	{Gray8, Y8, Y8},
	{Gray16, Y8, Y16},
	{GrayS, Unsupported, Y32},

	{YUV420P8, I420, I420},
	{YUV420P9, I420, ConsumerYUV420P16},
	{YUV420P10, I420, ConsumerYUV420P16},
	{YUV420P16, I420, ConsumerYUV420P16},

	{YUV422P8, YV16, YV16},
	{YUV422P9, YV16, ConsumerYUV422P16},
	{YUV422P10, YV16, ConsumerYUV422P16},
	{YUV422P16, YV16, ConsumerYUV422P16},

	{YUV444P8, YV24, YV24},
	{YUV444P9, YV24, ConsumerYUV444P16},
	{YUV444P10, YV24, ConsumerYUV444P16},
	{YUV444P16, YV24, ConsumerYUV444P16},
	{YUV444PS, Unsupported, ConsumerYUV444PS},

	{YUV411P8, YV411, YV411},

	{RGB24, BGR24, BGR24},
	{CompatBGR32, BGR32, BGR32},
	{CompatYUY2, YUY2, YUY2},
}

var tableIndex = func() map[ProducerID]tableEntry {
	m := make(map[ProducerID]tableEntry, len(table))
	for _, e := range table {
		m[e.producer] = e
	}
	return m
}()

// Map returns the consumer layout for a producer format.
//
// When hostSupportsNative is false, wide integer formats degrade to the
// 8-bit layout with the same subsampling; the geometry calculator then
// decides how the extra bytes are carried. Float formats have no degraded
// layout and map to Unsupported unless the host is native. Ids that are not
// in the table map to Unsupported.
func Map(id ProducerID, hostSupportsNative bool) ConsumerID {
	e, ok := tableIndex[id]
	if !ok {
		return Unsupported
	}
	if hostSupportsNative {
		return e.native
	}
	return e.legacy
}
