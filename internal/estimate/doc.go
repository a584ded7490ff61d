// Package estimate fuses attitude sensors into a single angle estimate.
//
// [Complementary] blends the gyro-integrated previous estimate with the
// accelerometer angle using a fixed weight alpha. Alpha close to 1 rejects
// accelerometer noise but converges slowly; alpha close to 0 follows the
// accelerometer closely, noise included.
package estimate
