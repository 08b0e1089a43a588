package export

import (
	"math"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/fitkit/activity"
)

type recordParquetRow struct {
	SourceFile   string  `parquet:"name=source_file, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RecordIndex  int64   `parquet:"name=record_index, type=INT64"`
	Timestamp    string  `parquet:"name=timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	Lap          int64   `parquet:"name=lap, type=INT64"`
	HeartRateBPM float64 `parquet:"name=heart_rate_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	LatitudeDeg  float64 `parquet:"name=latitude_deg, type=DOUBLE"`
	LongitudeDeg float64 `parquet:"name=longitude_deg, type=DOUBLE"`
	Anomalous    bool    `parquet:"name=anomalous, type=BOOLEAN"`
}

func writeRecordsParquet(path string, s *activity.Session) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return ioError("create", path, err)
	}
	if err := encodeRecordsParquet(fw, s); err != nil {
		_ = fw.Close()
		return serializationError("write parquet", path, err)
	}
	if err := fw.Close(); err != nil {
		return ioError("close", path, err)
	}
	return nil
}

func marshalRecordsParquet(s *activity.Session) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := encodeRecordsParquet(fw, s); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func encodeRecordsParquet(fw source.ParquetFile, s *activity.Session) error {
	pw, err := writer.NewParquetWriter(fw, new(recordParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for i, r := range s.Records {
		row := recordParquetRow{
			SourceFile:   s.SourceFile,
			RecordIndex:  int64(i),
			Timestamp:    formatTime(r.Timestamp),
			ElapsedS:     r.Elapsed,
			Lap:          int64(r.Lap),
			HeartRateBPM: valueOrNaN(r.HeartRate),
			CadenceRPM:   valueOrNaN(r.Cadence),
			SpeedMPS:     valueOrNaN(r.Speed),
			AltitudeM:    valueOrNaN(r.Altitude),
			DistanceM:    valueOrNaN(r.Distance),
			TemperatureC: valueOrNaN(r.Temperature),
			LatitudeDeg:  valueOrNaN(r.Latitude),
			LongitudeDeg: valueOrNaN(r.Longitude),
			Anomalous:    r.Anomalous,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
