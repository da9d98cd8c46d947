package exif

import "fmt"

type Tag uint16

// Kind identifies one of the directories of a Block.
type Kind int

const (
	KindImage Kind = iota
	KindCapture
	KindGPS
	KindInterop
	KindThumbnail
)

// Kinds lists the directories in layout order.
var Kinds = []Kind{KindImage, KindCapture, KindGPS, KindInterop, KindThumbnail}

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "Image"
	case KindCapture:
		return "Capture"
	case KindGPS:
		return "GPS"
	case KindInterop:
		return "Interop"
	case KindThumbnail:
		return "Thumbnail"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Pointer tags link directories and the thumbnail blob. They are structural: the
// codec writes them itself and they never appear in a Directory.
const (
	TagExifPointer     Tag = 0x8769
	TagGPSPointer      Tag = 0x8825
	TagInteropPointer  Tag = 0xA005
	TagThumbnailOffset Tag = 0x0201
	TagThumbnailLength Tag = 0x0202
)

// Image and Thumbnail directory tags.
const (
	TagImageWidth                Tag = 0x0100
	TagImageLength               Tag = 0x0101
	TagBitsPerSample             Tag = 0x0102
	TagCompression               Tag = 0x0103
	TagPhotometricInterpretation Tag = 0x0106
	TagImageDescription          Tag = 0x010E
	TagMake                      Tag = 0x010F
	TagModel                     Tag = 0x0110
	TagOrientation               Tag = 0x0112
	TagSamplesPerPixel           Tag = 0x0115
	TagXResolution               Tag = 0x011A
	TagYResolution               Tag = 0x011B
	TagPlanarConfiguration       Tag = 0x011C
	TagResolutionUnit            Tag = 0x0128
	TagSoftware                  Tag = 0x0131
	TagDateTime                  Tag = 0x0132
	TagArtist                    Tag = 0x013B
	TagHostComputer              Tag = 0x013C
	TagWhitePoint                Tag = 0x013E
	TagPrimaryChromaticities     Tag = 0x013F
	TagYCbCrCoefficients         Tag = 0x0211
	TagYCbCrSubSampling          Tag = 0x0212
	TagYCbCrPositioning          Tag = 0x0213
	TagReferenceBlackWhite       Tag = 0x0214
	TagRating                    Tag = 0x4746
	TagCopyright                 Tag = 0x8298
)

// Capture directory tags.
const (
	TagExposureTime             Tag = 0x829A
	TagFNumber                  Tag = 0x829D
	TagExposureProgram          Tag = 0x8822
	TagSpectralSensitivity      Tag = 0x8824
	TagISOSpeedRatings          Tag = 0x8827
	TagSensitivityType          Tag = 0x8830
	TagRecommendedExposureIndex Tag = 0x8832
	TagExifVersion              Tag = 0x9000
	TagDateTimeOriginal         Tag = 0x9003
	TagDateTimeDigitized        Tag = 0x9004
	TagOffsetTime               Tag = 0x9010
	TagOffsetTimeOriginal       Tag = 0x9011
	TagOffsetTimeDigitized      Tag = 0x9012
	TagComponentsConfiguration  Tag = 0x9101
	TagCompressedBitsPerPixel   Tag = 0x9102
	TagShutterSpeedValue        Tag = 0x9201
	TagApertureValue            Tag = 0x9202
	TagBrightnessValue          Tag = 0x9203
	TagExposureBiasValue        Tag = 0x9204
	TagMaxApertureValue         Tag = 0x9205
	TagSubjectDistance          Tag = 0x9206
	TagMeteringMode             Tag = 0x9207
	TagLightSource              Tag = 0x9208
	TagFlash                    Tag = 0x9209
	TagFocalLength              Tag = 0x920A
	TagSubjectArea              Tag = 0x9214
	TagMakerNote                Tag = 0x927C
	TagUserComment              Tag = 0x9286
	TagSubSecTime               Tag = 0x9290
	TagSubSecTimeOriginal       Tag = 0x9291
	TagSubSecTimeDigitized      Tag = 0x9292
	TagFlashpixVersion          Tag = 0xA000
	TagColorSpace               Tag = 0xA001
	TagPixelXDimension          Tag = 0xA002
	TagPixelYDimension          Tag = 0xA003
	TagFocalPlaneXResolution    Tag = 0xA20E
	TagFocalPlaneYResolution    Tag = 0xA20F
	TagFocalPlaneResolutionUnit Tag = 0xA210
	TagSensingMethod            Tag = 0xA217
	TagFileSource               Tag = 0xA300
	TagSceneType                Tag = 0xA301
	TagCustomRendered           Tag = 0xA401
	TagExposureMode             Tag = 0xA402
	TagWhiteBalance             Tag = 0xA403
	TagDigitalZoomRatio         Tag = 0xA404
	TagFocalLengthIn35mmFilm    Tag = 0xA405
	TagSceneCaptureType         Tag = 0xA406
	TagGainControl              Tag = 0xA407
	TagContrast                 Tag = 0xA408
	TagSaturation               Tag = 0xA409
	TagSharpness                Tag = 0xA40A
	TagSubjectDistanceRange     Tag = 0xA40C
	TagImageUniqueID            Tag = 0xA420
	TagCameraOwnerName          Tag = 0xA430
	TagBodySerialNumber         Tag = 0xA431
	TagLensSpecification        Tag = 0xA432
	TagLensMake                 Tag = 0xA433
	TagLensModel                Tag = 0xA434
	TagLensSerialNumber         Tag = 0xA435
)

// GPS directory tags.
const (
	TagGPSVersionID        Tag = 0x0000
	TagGPSLatitudeRef      Tag = 0x0001
	TagGPSLatitude         Tag = 0x0002
	TagGPSLongitudeRef     Tag = 0x0003
	TagGPSLongitude        Tag = 0x0004
	TagGPSAltitudeRef      Tag = 0x0005
	TagGPSAltitude         Tag = 0x0006
	TagGPSTimeStamp        Tag = 0x0007
	TagGPSSatellites       Tag = 0x0008
	TagGPSStatus           Tag = 0x0009
	TagGPSMeasureMode      Tag = 0x000A
	TagGPSDOP              Tag = 0x000B
	TagGPSSpeedRef         Tag = 0x000C
	TagGPSSpeed            Tag = 0x000D
	TagGPSTrackRef         Tag = 0x000E
	TagGPSTrack            Tag = 0x000F
	TagGPSImgDirectionRef  Tag = 0x0010
	TagGPSImgDirection     Tag = 0x0011
	TagGPSMapDatum         Tag = 0x0012
	TagGPSDestBearingRef   Tag = 0x0017
	TagGPSDestBearing      Tag = 0x0018
	TagGPSProcessingMethod Tag = 0x001B
	TagGPSAreaInformation  Tag = 0x001C
	TagGPSDateStamp        Tag = 0x001D
	TagGPSDifferential     Tag = 0x001E
	TagGPSHPositioningErr  Tag = 0x001F
)

// Interop directory tags.
const (
	TagInteropIndex   Tag = 0x0001
	TagInteropVersion Tag = 0x0002
)

var imageTags = map[Tag]string{
	TagImageWidth:                "ImageWidth",
	TagImageLength:               "ImageLength",
	TagBitsPerSample:             "BitsPerSample",
	TagCompression:               "Compression",
	TagPhotometricInterpretation: "PhotometricInterpretation",
	TagImageDescription:          "ImageDescription",
	TagMake:                      "Make",
	TagModel:                     "Model",
	TagOrientation:               "Orientation",
	TagSamplesPerPixel:           "SamplesPerPixel",
	TagXResolution:               "XResolution",
	TagYResolution:               "YResolution",
	TagPlanarConfiguration:       "PlanarConfiguration",
	TagResolutionUnit:            "ResolutionUnit",
	TagSoftware:                  "Software",
	TagDateTime:                  "DateTime",
	TagArtist:                    "Artist",
	TagHostComputer:              "HostComputer",
	TagWhitePoint:                "WhitePoint",
	TagPrimaryChromaticities:     "PrimaryChromaticities",
	TagYCbCrCoefficients:         "YCbCrCoefficients",
	TagYCbCrSubSampling:          "YCbCrSubSampling",
	TagYCbCrPositioning:          "YCbCrPositioning",
	TagReferenceBlackWhite:       "ReferenceBlackWhite",
	TagRating:                    "Rating",
	TagCopyright:                 "Copyright",
}

var captureTags = map[Tag]string{
	TagExposureTime:             "ExposureTime",
	TagFNumber:                  "FNumber",
	TagExposureProgram:          "ExposureProgram",
	TagSpectralSensitivity:      "SpectralSensitivity",
	TagISOSpeedRatings:          "ISOSpeedRatings",
	TagSensitivityType:          "SensitivityType",
	TagRecommendedExposureIndex: "RecommendedExposureIndex",
	TagExifVersion:              "ExifVersion",
	TagDateTimeOriginal:         "DateTimeOriginal",
	TagDateTimeDigitized:        "DateTimeDigitized",
	TagOffsetTime:               "OffsetTime",
	TagOffsetTimeOriginal:       "OffsetTimeOriginal",
	TagOffsetTimeDigitized:      "OffsetTimeDigitized",
	TagComponentsConfiguration:  "ComponentsConfiguration",
	TagCompressedBitsPerPixel:   "CompressedBitsPerPixel",
	TagShutterSpeedValue:        "ShutterSpeedValue",
	TagApertureValue:            "ApertureValue",
	TagBrightnessValue:          "BrightnessValue",
	TagExposureBiasValue:        "ExposureBiasValue",
	TagMaxApertureValue:         "MaxApertureValue",
	TagSubjectDistance:          "SubjectDistance",
	TagMeteringMode:             "MeteringMode",
	TagLightSource:              "LightSource",
	TagFlash:                    "Flash",
	TagFocalLength:              "FocalLength",
	TagSubjectArea:              "SubjectArea",
	TagMakerNote:                "MakerNote",
	TagUserComment:              "UserComment",
	TagSubSecTime:               "SubSecTime",
	TagSubSecTimeOriginal:       "SubSecTimeOriginal",
	TagSubSecTimeDigitized:      "SubSecTimeDigitized",
	TagFlashpixVersion:          "FlashpixVersion",
	TagColorSpace:               "ColorSpace",
	TagPixelXDimension:          "PixelXDimension",
	TagPixelYDimension:          "PixelYDimension",
	TagFocalPlaneXResolution:    "FocalPlaneXResolution",
	TagFocalPlaneYResolution:    "FocalPlaneYResolution",
	TagFocalPlaneResolutionUnit: "FocalPlaneResolutionUnit",
	TagSensingMethod:            "SensingMethod",
	TagFileSource:               "FileSource",
	TagSceneType:                "SceneType",
	TagCustomRendered:           "CustomRendered",
	TagExposureMode:             "ExposureMode",
	TagWhiteBalance:             "WhiteBalance",
	TagDigitalZoomRatio:         "DigitalZoomRatio",
	TagFocalLengthIn35mmFilm:    "FocalLengthIn35mmFilm",
	TagSceneCaptureType:         "SceneCaptureType",
	TagGainControl:              "GainControl",
	TagContrast:                 "Contrast",
	TagSaturation:               "Saturation",
	TagSharpness:                "Sharpness",
	TagSubjectDistanceRange:     "SubjectDistanceRange",
	TagImageUniqueID:            "ImageUniqueID",
	TagCameraOwnerName:          "CameraOwnerName",
	TagBodySerialNumber:         "BodySerialNumber",
	TagLensSpecification:        "LensSpecification",
	TagLensMake:                 "LensMake",
	TagLensModel:                "LensModel",
	TagLensSerialNumber:         "LensSerialNumber",
}

var gpsTags = map[Tag]string{
	TagGPSVersionID:        "GPSVersionID",
	TagGPSLatitudeRef:      "GPSLatitudeRef",
	TagGPSLatitude:         "GPSLatitude",
	TagGPSLongitudeRef:     "GPSLongitudeRef",
	TagGPSLongitude:        "GPSLongitude",
	TagGPSAltitudeRef:      "GPSAltitudeRef",
	TagGPSAltitude:         "GPSAltitude",
	TagGPSTimeStamp:        "GPSTimeStamp",
	TagGPSSatellites:       "GPSSatellites",
	TagGPSStatus:           "GPSStatus",
	TagGPSMeasureMode:      "GPSMeasureMode",
	TagGPSDOP:              "GPSDOP",
	TagGPSSpeedRef:         "GPSSpeedRef",
	TagGPSSpeed:            "GPSSpeed",
	TagGPSTrackRef:         "GPSTrackRef",
	TagGPSTrack:            "GPSTrack",
	TagGPSImgDirectionRef:  "GPSImgDirectionRef",
	TagGPSImgDirection:     "GPSImgDirection",
	TagGPSMapDatum:         "GPSMapDatum",
	TagGPSDestBearingRef:   "GPSDestBearingRef",
	TagGPSDestBearing:      "GPSDestBearing",
	TagGPSProcessingMethod: "GPSProcessingMethod",
	TagGPSAreaInformation:  "GPSAreaInformation",
	TagGPSDateStamp:        "GPSDateStamp",
	TagGPSDifferential:     "GPSDifferential",
	TagGPSHPositioningErr:  "GPSHPositioningError",
}

var interopTags = map[Tag]string{
	TagInteropIndex:   "InteroperabilityIndex",
	TagInteropVersion: "InteroperabilityVersion",
}

func tagTable(kind Kind) map[Tag]string {
	switch kind {
	case KindImage, KindThumbnail:
		return imageTags
	case KindCapture:
		return captureTags
	case KindGPS:
		return gpsTags
	case KindInterop:
		return interopTags
	default:
		return nil
	}
}

// Name returns the name of a tag within a directory kind.
func Name(kind Kind, tag Tag) (string, bool) {
	name, ok := tagTable(kind)[tag]
	return name, ok
}

// Known reports whether the codec materializes values for the tag.
func Known(kind Kind, tag Tag) bool {
	_, ok := Name(kind, tag)
	return ok
}

// DisplayName falls back to "Unknown (0xNNNN)" for tags without a name.
func DisplayName(kind Kind, tag Tag) string {
	if name, ok := Name(kind, tag); ok {
		return name
	}

	return fmt.Sprintf("Unknown (0x%04X)", uint16(tag))
}

func pointerTag(kind Kind, tag Tag) bool {
	switch kind {
	case KindImage:
		return tag == TagExifPointer || tag == TagGPSPointer
	case KindCapture:
		return tag == TagInteropPointer
	case KindThumbnail:
		return tag == TagThumbnailOffset || tag == TagThumbnailLength
	}

	return false
}
