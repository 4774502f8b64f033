package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valeriodiste/shared-app/internal/dataset"
	"github.com/valeriodiste/shared-app/internal/evaluation"
	"github.com/valeriodiste/shared-app/internal/fsutil"
	"github.com/valeriodiste/shared-app/internal/monitoring"
	"github.com/valeriodiste/shared-app/internal/pose"
	"github.com/valeriodiste/shared-app/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

func fe(tr, rot float64) pose.FrameError {
	return pose.FrameError{TranslationError: testutil.Float(tr), RotationError: testutil.Float(rot)}
}

func sampleErrors() evaluation.ErrorSet {
	return evaluation.ErrorSet{
		{Algorithm: "ORB", Samples: [][]pose.FrameError{
			{fe(0.25, 10), fe(0.75, 20), {}},
			{{}, {}},
		}},
		{Algorithm: "AKAZE", Samples: [][]pose.FrameError{
			{fe(1, 1)},
			{fe(3, 5)},
		}},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleErrors(), true)
	require.Len(t, s, 2)

	orb := s[0]
	assert.Equal(t, "ORB", orb.Algorithm)
	assert.Equal(t, 5, orb.TotalFrames)
	testutil.AssertFloatPtr(t, "orb s1 translation", testutil.Float(0.5), orb.Samples[0].TranslationError, 1e-12)
	testutil.AssertFloatPtr(t, "orb s1 rotation", testutil.Float(15), orb.Samples[0].RotationError, 1e-12)
	testutil.AssertFloatPtr(t, "orb s2 translation", nil, orb.Samples[1].TranslationError, 0)
	testutil.AssertFloatPtr(t, "orb average translation", testutil.Float(0.5), orb.Average.TranslationError, 1e-12)
	require.NotNil(t, orb.Average.UndetectedFrames)
	assert.Equal(t, 3, *orb.Average.UndetectedFrames)

	akaze, ok := s.Lookup("AKAZE")
	require.True(t, ok)
	// Average of sample means, not of frames.
	testutil.AssertFloatPtr(t, "akaze average translation", testutil.Float(2), akaze.Average.TranslationError, 1e-12)
	testutil.AssertFloatPtr(t, "akaze average rotation", testutil.Float(3), akaze.Average.RotationError, 1e-12)
	assert.Equal(t, 0, *akaze.Average.UndetectedFrames)

	tracking := Summarize(sampleErrors(), false)
	assert.Nil(t, tracking[0].Average.UndetectedFrames)
}

func TestSummaries_JSON(t *testing.T) {
	b, err := json.Marshal(Tabular{Detection: Summarize(sampleErrors()[:1], true)})
	require.NoError(t, err)

	want := `{"detection":{"ORB":{` +
		`"Sample #1":{"Translation Error":0.5,"Rotation Error":15},` +
		`"Sample #2":{"Translation Error":null,"Rotation Error":null},` +
		`"Average":{"Translation Error":0.5,"Rotation Error":15,"Undetected Frames":3}}},` +
		`"tracking":{}}`
	assert.Equal(t, want, string(b))
}

func TestExecutionAverages(t *testing.T) {
	det := DetectionExecutionAverages(dataset.Table[dataset.StepTimes]{
		{Algorithm: "ORB", Samples: [][]dataset.StepTimes{{{1.5, 2.5}, {0.5, 0.5}}}},
		{Algorithm: "Empty", Samples: [][]dataset.StepTimes{{}}},
	})
	require.Len(t, det, 2)
	testutil.AssertFloatPtr(t, "recognition", testutil.Float(1), det[0].Recognition, 1e-12)
	testutil.AssertFloatPtr(t, "pose detection", testutil.Float(1.5), det[0].PoseDetection, 1e-12)
	assert.Nil(t, det[1].Recognition)

	b, err := json.Marshal(det)
	require.NoError(t, err)
	assert.Equal(t, `{"ORB":[1,1.5],"Empty":[null,null]}`, string(b))

	trk := TrackingExecutionAverages(dataset.Table[float64]{
		{Algorithm: "KCF", Samples: [][]float64{{1, 2}, {6}}},
	})
	testutil.AssertFloatPtr(t, "tracking", testutil.Float(3), trk[0].Value, 1e-12)
}

func TestFPSAverages_SkipsNulls(t *testing.T) {
	avg := FPSAverages(dataset.Table[*float64]{
		{Algorithm: "Opt", Samples: [][]*float64{{testutil.Float(10), nil, testutil.Float(20)}}},
		{Algorithm: "None", Samples: [][]*float64{{nil}}},
	})
	testutil.AssertFloatPtr(t, "Opt", testutil.Float(15), avg[0].Value, 1e-12)
	assert.Nil(t, avg[1].Value)

	b, err := json.Marshal(avg)
	require.NoError(t, err)
	assert.Equal(t, `{"Opt":15,"None":null}`, string(b))
}

func TestFPSHistogram(t *testing.T) {
	f := testutil.Float
	tbl := dataset.Table[*float64]{
		{Algorithm: "ORB", Samples: [][]*float64{{f(10), f(12.5), nil}, {f(24.9)}}},
		{Algorithm: "Opt2", Samples: [][]*float64{{f(0), f(5)}}},
	}

	h, err := FPSHistogram(tbl, 5)
	require.NoError(t, err)
	require.Len(t, h.Ranges, 5)
	assert.Equal(t, FPSRange{Low: 0, High: 5, Label: "0-5"}, h.Ranges[0])
	assert.Equal(t, FPSRange{Low: 20, High: 25, Label: "20-25"}, h.Ranges[4])
	assert.Equal(t, []int{0, 0, 2, 0, 1}, h.Counts[0].Counts)
	assert.Equal(t, []int{1, 1, 0, 0, 0}, h.Counts[1].Counts)
	assert.Equal(t, "Opt2", h.Counts[1].Algorithm)
}

func TestFPSHistogram_NegativeAndUpperBound(t *testing.T) {
	f := testutil.Float
	h, err := FPSHistogram(dataset.Table[*float64]{
		{Algorithm: "A", Samples: [][]*float64{{f(-2.5), f(3)}}},
	}, 5)
	require.NoError(t, err)

	require.Len(t, h.Ranges, 1)
	assert.Equal(t, -3.0, h.Ranges[0].Low)
	assert.Equal(t, 3.0, h.Ranges[0].High)
	// The maximum sits on the open upper bound.
	assert.Equal(t, []int{1}, h.Counts[0].Counts)
}

func TestFPSHistogram_Empty(t *testing.T) {
	h, err := FPSHistogram(dataset.Table[*float64]{{Algorithm: "A", Samples: [][]*float64{{nil}}}}, 5)
	require.NoError(t, err)
	assert.Empty(t, h.Ranges)
	assert.Empty(t, h.Counts[0].Counts)

	_, err = FPSHistogram(nil, 0)
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "15.0", FormatNumber(15))
	assert.Equal(t, "0.5", FormatNumber(0.5))
	assert.Equal(t, "0.123", FormatNumber(0.123))
	assert.Equal(t, "-2.0", FormatNumber(-2))
}

func TestTables(t *testing.T) {
	sums := Summarize(sampleErrors(), true)
	times := DetectionTimes{{Algorithm: "ORB", Recognition: testutil.Float(1), PoseDetection: testutil.Float(1.23456)}}

	det := DetectionTable(sums, times)
	assert.Equal(t, DetectionColumns, det.Columns)
	assert.Equal(t, [][]string{
		{"ORB", "3", "0.5", "15.0", "1.0", "1.235"},
		{"AKAZE", "0", "2.0", "3.0", Missing, Missing},
	}, det.Rows)

	trk := TrackingTable(Summarize(sampleErrors(), false), Averages{{Algorithm: "AKAZE", Value: testutil.Float(0.0004)}})
	assert.Equal(t, [][]string{
		{"ORB", "0.5", "15.0", Missing},
		{"AKAZE", "2.0", "3.0", "0.0"},
	}, trk.Rows)
	assert.Equal(t, Missing, trk.Rows[0][3])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Table{
		Columns: []string{"Algorithm", "Translation Error"},
		Rows:    [][]string{{"ORB, fast", "0.5"}},
	}))
	assert.Equal(t, "Algorithm,Translation Error\n\"ORB, fast\",0.5\n", buf.String())
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, Table{
		Columns: []string{"A", "Bee"},
		Rows:    [][]string{{"long", "1"}},
	}))
	want := "A    | Bee | \n" +
		"---- | --- | \n" +
		"long | 1   | \n"
	assert.Equal(t, want, buf.String())
}

func TestGenerate(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	testutil.WriteJSON(t, fsys, "Results/"+evaluation.DetectionErrorsFile, sampleErrors())
	testutil.WriteRaw(t, fsys, "Results/"+dataset.DetectionExecutionTimesFile, `{"ORB": [[[1.5, 2.5], [0.5, 0.5]]]}`)
	testutil.WriteRaw(t, fsys, "Results/"+dataset.OptimizationFPSFile, `{"Opt": [[1, 2, null, 9]]}`)

	r, err := Generate(fsys, "Results", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Results/tabular_data.json",
		"Results/execution_times.json",
		"Results/optimization_fps_average.json",
		"Results/optimization_fps_histogram.json",
		"Results/Tables/detection_table_data.csv",
		"Results/Tables/tracking_table_data.csv",
	}, r.Written)
	assert.Empty(t, r.Tabular.Tracking)

	data, err := fsys.ReadFile("Results/Tables/detection_table_data.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Algorithm,Errors,Translation Error,Rotation Error,Recognition Execution Time,Pose Detection Execution Time", lines[0])
	assert.Equal(t, "ORB,3,0.5,15.0,1.0,1.5", lines[1])
	assert.Equal(t, "AKAZE,0,2.0,3.0,N/A,N/A", lines[2])

	data, err = fsys.ReadFile("Results/Tables/tracking_table_data.csv")
	require.NoError(t, err)
	assert.Equal(t, "Algorithm,Translation Error,Rotation Error,Execution Time\n", string(data))

	require.NotNil(t, r.FPSHistogram)
	assert.Len(t, r.FPSHistogram.Ranges, 1, "span 0-9 with size 5 gives one bucket")

	var out bytes.Buffer
	require.NoError(t, r.Print(&out))
	text := out.String()
	assert.Contains(t, text, "Detection Results (Average):")
	assert.Contains(t, text, "    Undetected Frames: 3")
	assert.Contains(t, text, "  ORB (recognition): 1.0")
	assert.Contains(t, text, "Detection Table:\nAlgorithm | Errors |")
	assert.Contains(t, text, "  Opt: 4.0")
}

func TestGenerate_NoErrorFiles(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.MkdirAll("Results", 0755))
	_, err := Generate(fsys, "Results", Options{})
	assert.ErrorContains(t, err, "no detection_final_errors.json or tracking_final_errors.json")
}
